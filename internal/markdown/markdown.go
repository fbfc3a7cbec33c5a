package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// ToHTML renders markdown-flavored model output for display.
func ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
