package index

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages with a Porter-family stemmer in SQLite FTS5.
var stemmed = map[language.Base]bool{
	language.MustParseBase("en"): true,
}

var named = []language.Tag{
	language.English, language.German, language.French, language.Spanish,
	language.Italian, language.Portuguese, language.Dutch, language.Swedish,
	language.Danish, language.Norwegian, language.Finnish, language.Russian,
}

// Tokenizer maps a language name ("english") or BCP 47 tag ("en-GB") to
// an FTS5 tokenizer declaration.
func Tokenizer(lang string) (string, error) {
	tag, err := parseLanguage(lang)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	if stemmed[base] {
		return "porter unicode61 remove_diacritics 2", nil
	}
	return "unicode61 remove_diacritics 2", nil
}

func parseLanguage(lang string) (language.Tag, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return language.English, nil
	}
	namer := display.English.Tags()
	for _, t := range named {
		if strings.EqualFold(namer.Name(t), lang) {
			return t, nil
		}
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Und, fmt.Errorf("index: unknown search language %q: %w", lang, err)
	}
	return tag, nil
}
