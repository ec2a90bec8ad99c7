package app

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func runTranslators(args []string) int {
	fs := flag.NewFlagSet("translators", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	from := fs.String("from", "", "Source language code (empty uses the configured setting)")
	to := fs.String("to", "", "Target language code (empty uses the configured setting)")

	rt, code := bootstrapCommand(fs, args)
	if rt == nil {
		return code
	}
	defer rt.close()

	pairFrom, pairTo := *from, *to
	if strings.TrimSpace(pairFrom) == "" || strings.TrimSpace(pairTo) == "" {
		pairFrom, pairTo = rt.dispatcher.LanguageSetting()
	}

	available := rt.dispatcher.AvailableTranslators(pairFrom, pairTo)
	if len(available) == 0 {
		fmt.Fprintf(os.Stderr, "No translator supports %s -> %s\n", pairFrom, pairTo)
		return 1
	}

	defaultName := rt.dispatcher.DefaultTranslator()
	fmt.Printf("Translators for %s -> %s:\n", pairFrom, pairTo)
	for _, name := range available {
		marker := " "
		if name == defaultName {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, name)
	}
	return 0
}
