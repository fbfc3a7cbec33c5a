package pipeline

import (
	"strings"

	"branding-bible/internal/brand"
)

// Result is the terminal state of one generation run. Every run gets a
// fresh Result, so a stale run finishing after a reset cannot touch the
// state of a newer one.
type Result struct {
	RunID   string `json:"runId"`
	Mission string `json:"mission"`

	Bible      *brand.Bible                `json:"bible,omitempty"`
	Logos      *brand.GeneratedLogos       `json:"logos,omitempty"`
	BrandVoice string                      `json:"brandVoice,omitempty"`
	PostIdeas  []string                    `json:"postIdeas,omitempty"`
	Seo        *brand.SeoRecommendations   `json:"seo,omitempty"`
	MoodBoard  []string                    `json:"moodBoard,omitempty"`
	SocialKit  *brand.SocialMediaKitAssets `json:"socialKit,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// ErrorReport joins the per-stage error lines. Empty when nothing failed.
func (r *Result) ErrorReport() string {
	return strings.Join(r.Errors, "\n")
}
