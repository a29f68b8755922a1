package transcode

import (
	"strings"
	"unicode"
)

// CombinedModelsFile holds every model exported in a run.
const CombinedModelsFile = "all_models.json"

// SanitizeTitle keeps letters, digits, spaces and underscores, trims trailing
// whitespace and turns spaces into underscores.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimRight(b.String(), " "), " ", "_")
}

// ModelFileName returns the per-preset output file name for a title. Titles
// with nothing left after sanitizing use DefaultPresetTitle.
func ModelFileName(title string) string {
	safe := SanitizeTitle(title)
	if safe == "" {
		safe = DefaultPresetTitle
	}
	return "Model-" + safe + ".json"
}
