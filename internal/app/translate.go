package app

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	from := fs.String("from", "", "Source language code (empty uses the configured setting)")
	to := fs.String("to", "", "Target language code (empty uses the configured setting)")
	translator := fs.String("translator", "", "Translator to use for this call (empty uses the default)")
	timeout := addTimeoutFlag(fs)

	rt, code := bootstrapCommand(fs, args)
	if rt == nil {
		return code
	}
	defer rt.close()

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: lingo translate [flags] <text>")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *translator != "" {
		if err := rt.dispatcher.UpdateDefaultTranslator(ctx, *translator); err != nil {
			fmt.Fprintf(os.Stderr, "Unknown translator %q\n", *translator)
			return 2
		}
	}

	result, err := rt.dispatcher.TranslateWith(ctx, text, *from, *to)
	if err != nil {
		rt.logger.Error().Err(err).Msg("translate failed")
		fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
		return 1
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Encode result failed: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}
