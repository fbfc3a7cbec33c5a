package brand

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Export is a serialized asset ready for a client-side download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

const (
	ExportPalette   = "palette"
	ExportFonts     = "fonts"
	ExportVoice     = "voice"
	ExportPostIdeas = "posts"
	ExportSeo       = "seo"
)

func ExportPaletteJSON(palette []ColorInfo) (Export, error) {
	data, err := json.MarshalIndent(palette, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("marshal palette: %w", err)
	}
	return Export{Filename: "palette.json", ContentType: "application/json", Data: data}, nil
}

func ExportFontsJSON(fonts FontPair) (Export, error) {
	data, err := json.MarshalIndent(fonts, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("marshal fonts: %w", err)
	}
	return Export{Filename: "fonts.json", ContentType: "application/json", Data: data}, nil
}

func ExportSeoJSON(seo SeoRecommendations) (Export, error) {
	data, err := json.MarshalIndent(seo, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("marshal seo recommendations: %w", err)
	}
	return Export{Filename: "seo.json", ContentType: "application/json", Data: data}, nil
}

func ExportVoiceMarkdown(voice string) Export {
	return Export{Filename: "brand-voice.md", ContentType: "text/markdown; charset=utf-8", Data: []byte(voice)}
}

func ExportPostIdeasMarkdown(posts []string) Export {
	var b strings.Builder
	b.WriteString("# Social Media Post Ideas\n")
	for i, p := range posts {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, p)
	}
	return Export{Filename: "post-ideas.md", ContentType: "text/markdown; charset=utf-8", Data: []byte(b.String())}
}
