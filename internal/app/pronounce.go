package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/lingo/internal/translation"
)

func runPronounce(args []string) int {
	fs := flag.NewFlagSet("pronounce", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	language := fs.String("language", "auto", "Language of the text")
	speed := fs.String("speed", "fast", "Speech speed: fast or slow")
	out := fs.String("out", "speech.mp3", "Output MP3 file")
	timeout := addTimeoutFlag(fs)

	rt, code := bootstrapCommand(fs, args)
	if rt == nil {
		return code
	}
	defer rt.close()

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: lingo pronounce [flags] <text>")
		return 2
	}

	parsedSpeed := translation.Speed(strings.ToLower(strings.TrimSpace(*speed)))
	if parsedSpeed != translation.SpeedFast && parsedSpeed != translation.SpeedSlow {
		fmt.Fprintln(os.Stderr, "--speed must be fast or slow")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	audio, err := rt.dispatcher.Pronounce(ctx, text, *language, parsedSpeed)
	if err != nil {
		rt.logger.Error().Err(err).Msg("pronounce failed")
		fmt.Fprintf(os.Stderr, "Pronounce failed: %v\n", err)
		return 1
	}

	if err := os.WriteFile(*out, audio, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write %s failed: %v\n", *out, err)
		return 1
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(audio), *out)
	return 0
}
