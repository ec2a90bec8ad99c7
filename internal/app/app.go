// Package app implements the lingo command line interface.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "detect":
		return runDetect(args[1:])
	case "translate":
		return runTranslate(args[1:])
	case "pronounce":
		return runPronounce(args[1:])
	case "translators":
		return runTranslators(args[1:])
	case "languages":
		return runLanguages(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "lingo CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  lingo <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health       Verify configuration and settings store connectivity")
	fmt.Fprintln(os.Stderr, "  detect       Detect the language of a text")
	fmt.Fprintln(os.Stderr, "  translate    Translate a text and print the result as JSON")
	fmt.Fprintln(os.Stderr, "  pronounce    Synthesize speech for a text into an MP3 file")
	fmt.Fprintln(os.Stderr, "  translators  List translators available for a language pair")
	fmt.Fprintln(os.Stderr, "  languages    List language codes a translator supports")
	fmt.Fprintln(os.Stderr, "  serve        Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"lingo <command> -h\" for command-specific flags.")
}
