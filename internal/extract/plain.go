package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlainPages treats content as UTF-8 text, splitting pages on form
// feeds. Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlainPages(content []byte) ([]string, error) {
	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, "�")
	}
	if !strings.Contains(text, "\f") {
		return []string{text}, nil
	}
	return strings.Split(text, "\f"), nil
}
