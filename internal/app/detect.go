package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func addTimeoutFlag(fs *flag.FlagSet) *time.Duration {
	return fs.Duration("timeout", 30*time.Second, "Overall command timeout")
}

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	timeout := addTimeoutFlag(fs)

	rt, code := bootstrapCommand(fs, args)
	if rt == nil {
		return code
	}
	defer rt.close()

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: lingo detect [flags] <text>")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	detected, err := rt.dispatcher.Detect(ctx, text)
	if err != nil {
		rt.logger.Error().Err(err).Msg("detect failed")
		fmt.Fprintf(os.Stderr, "Detect failed: %v\n", err)
		return 1
	}
	if detected == "" {
		fmt.Fprintln(os.Stderr, "Could not determine the language")
		return 1
	}

	fmt.Println(detected)
	return 0
}
