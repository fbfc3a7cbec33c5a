package gemini

import "errors"

var (
	// ErrMalformedResponse marks structured-generation replies that could
	// not be parsed as JSON.
	ErrMalformedResponse = errors.New("gemini: malformed response")

	// ErrGenerationFailure marks image calls that settled without
	// producing an image.
	ErrGenerationFailure = errors.New("gemini: generation failure")
)

// AspectRatios enumerates the ratios the image endpoint accepts.
var AspectRatios = []string{"1:1", "4:3", "3:4", "16:9", "9:16"}

func ValidAspectRatio(ratio string) bool {
	for _, r := range AspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

type Message struct {
	Role string
	Text string
}

// Schema describes the response shape for structured generation, in the
// generativelanguage responseSchema dialect.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

const (
	TypeObject = "OBJECT"
	TypeArray  = "ARRAY"
	TypeString = "STRING"
)
