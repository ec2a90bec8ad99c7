package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/lingo/internal/settings"
)

// runHealth verifies that the configuration loads, the engines register and
// the settings store answers. It performs no translation calls.
func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	timeout := fs.Duration("timeout", 10*time.Second, "Settings store check timeout")

	rt, code := bootstrapCommand(fs, args)
	if rt == nil {
		return code
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// A missing key is a healthy answer; only transport failures matter here.
	if _, err := rt.store.Get(ctx, "health_probe"); err != nil && !errors.Is(err, settings.ErrNotFound) {
		rt.logger.Error().Err(err).Msg("settings store check failed")
		fmt.Fprintf(os.Stderr, "Settings store check failed: %v\n", err)
		return 1
	}

	from, to := rt.dispatcher.LanguageSetting()
	fmt.Printf("OK: default translator %s, language setting %s -> %s\n",
		rt.dispatcher.DefaultTranslator(), from, to)
	return 0
}
