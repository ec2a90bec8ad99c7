package app

import (
	"flag"
	"fmt"
	"os"

	"horse.fit/lingo/internal/translation"
)

func runLanguages(args []string) int {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	translator := fs.String("translator", "", "Translator to list languages for (empty uses the default)")

	rt, code := bootstrapCommand(fs, args)
	if rt == nil {
		return code
	}
	defer rt.close()

	languages, err := rt.dispatcher.SupportedLanguages(*translator)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unknown translator %q\n", *translator)
		return 2
	}

	for _, option := range translation.LanguageOptions(languages) {
		if option.Native != "" && option.Native != option.Label {
			fmt.Printf("%s\t%s (%s)\n", option.Code, option.Label, option.Native)
			continue
		}
		fmt.Printf("%s\t%s\n", option.Code, option.Label)
	}
	return 0
}
