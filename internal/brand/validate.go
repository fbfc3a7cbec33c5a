package brand

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	paletteSize       = 5
	secondaryLogoSize = 2
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate applies the structural checks a freshly generated Bible must
// pass before the pipeline exposes it.
func Validate(b *Bible) error {
	if b == nil {
		return fmt.Errorf("brand bible is nil")
	}
	if strings.TrimSpace(b.BrandName) == "" {
		return fmt.Errorf("brand name is empty")
	}
	if len(b.Palette) != paletteSize {
		return fmt.Errorf("palette has %d colors, want %d", len(b.Palette), paletteSize)
	}
	for i, c := range b.Palette {
		if !hexColorRegex.MatchString(c.Hex) {
			return fmt.Errorf("palette color %d has invalid hex %q", i, c.Hex)
		}
	}
	if strings.TrimSpace(b.Fonts.Header) == "" || strings.TrimSpace(b.Fonts.Body) == "" {
		return fmt.Errorf("font pairing is incomplete")
	}
	if strings.TrimSpace(b.LogoDescriptions.Primary) == "" {
		return fmt.Errorf("primary logo description is empty")
	}
	if len(b.LogoDescriptions.Secondary) != secondaryLogoSize {
		return fmt.Errorf("got %d secondary logo descriptions, want %d", len(b.LogoDescriptions.Secondary), secondaryLogoSize)
	}
	return nil
}
