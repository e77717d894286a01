// Package language maps LingQ language codes to human-readable names for
// table output.
package language

import "strings"

type entry struct {
	code    string
	display string
}

var languages = []entry{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"zh", "Chinese (Simplified)"},
	{"zh-t", "Chinese (Traditional)"},
	{"ru", "Russian"},
	{"ar", "Arabic"},
	{"hi", "Hindi"},
	{"nl", "Dutch"},
	{"pl", "Polish"},
	{"sv", "Swedish"},
	{"da", "Danish"},
	{"no", "Norwegian"},
	{"fi", "Finnish"},
	{"el", "Greek"},
	{"he", "Hebrew"},
	{"tr", "Turkish"},
	{"uk", "Ukrainian"},
	{"cs", "Czech"},
	{"ro", "Romanian"},
	{"la", "Latin"},
	{"eo", "Esperanto"},
}

var byCode map[string]string

func init() {
	byCode = make(map[string]string, len(languages))
	for _, e := range languages {
		byCode[e.code] = e.display
	}
}

// DisplayName returns a human-readable language name for a recognized code.
// Unrecognized codes pass through uppercased so the table stays readable.
func DisplayName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "Unknown"
	}
	if display, ok := byCode[code]; ok {
		return display
	}
	return strings.ToUpper(code)
}
