package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branding-bible/internal/gemini"
)

const validBibleJSON = `{
	"brandName": "SockSphere",
	"palette": [
		{"hex": "#2E7D32", "name": "Forest Green", "usage": "Primary"},
		{"hex": "#A5D6A7", "name": "Soft Mint", "usage": "Secondary"},
		{"hex": "#FFF8E1", "name": "Warm Cream", "usage": "Background"},
		{"hex": "#4E342E", "name": "Rich Earth", "usage": "Text"},
		{"hex": "#FF8F00", "name": "Sunset Amber", "usage": "Accent"}
	],
	"fonts": {"header": "Poppins", "body": "Inter", "notes": "Friendly yet professional."},
	"logoDescriptions": {
		"primary": "A minimalist sock forming a leaf shape",
		"secondary": ["A single leaf mark", "Interlocking thread circles"],
		"favicon": "A simplified leaf glyph"
	},
	"harmonies": [
		{"name": "Analogous", "palette": [{"hex": "#33691E", "name": "Deep Moss"}], "explanation": "Calm and natural."}
	]
}`

// fakeGenerator routes calls by prompt content and records every call.
type fakeGenerator struct {
	mu sync.Mutex

	structuredPrompts []string
	imagePrompts      []string
	imageAspects      []string
	textPrompts       []string

	structuredErr  error
	structuredJSON string
	textErr        error
	failImagesWith []string // substrings of prompts whose image call fails
}

func (f *fakeGenerator) GenerateStructured(_ context.Context, prompt string, _ *gemini.Schema) (json.RawMessage, error) {
	f.mu.Lock()
	f.structuredPrompts = append(f.structuredPrompts, prompt)
	f.mu.Unlock()

	switch {
	case strings.Contains(prompt, "social media post ideas"):
		return json.RawMessage(`{"posts": ["Idea one", "Idea two", "Idea three", "Idea four", "Idea five"]}`), nil
	case strings.Contains(prompt, "SEO metadata"):
		return json.RawMessage(`{"titleTags": ["T1", "T2", "T3"], "metaDescription": "Eco socks.", "keywords": ["socks", "eco"]}`), nil
	case strings.Contains(prompt, "comprehensive brand bible"):
		if f.structuredErr != nil {
			return nil, f.structuredErr
		}
		if f.structuredJSON != "" {
			return json.RawMessage(f.structuredJSON), nil
		}
		return json.RawMessage(validBibleJSON), nil
	}
	return nil, fmt.Errorf("unexpected structured prompt: %s", prompt)
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt, aspectRatio string, _ bool) (string, error) {
	f.mu.Lock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	f.imageAspects = append(f.imageAspects, aspectRatio)
	f.mu.Unlock()

	for _, s := range f.failImagesWith {
		if strings.Contains(prompt, s) {
			return "", gemini.ErrGenerationFailure
		}
	}
	return "data:image/jpeg;base64," + shortKey(prompt), nil
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.textPrompts = append(f.textPrompts, prompt)
	f.mu.Unlock()

	if f.textErr != nil {
		return "", f.textErr
	}
	return "## Brand Voice Summary\nWarm and grounded.", nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.structuredPrompts) + len(f.imagePrompts) + len(f.textPrompts)
}

func shortKey(prompt string) string {
	if len(prompt) > 24 {
		prompt = prompt[:24]
	}
	return strings.ReplaceAll(prompt, " ", "_")
}

func TestRunRejectsEmptyMission(t *testing.T) {
	gen := &fakeGenerator{}
	r := New(Options{Generator: gen})

	for _, mission := range []string{"", "   ", "\n\t"} {
		res, err := r.Run(context.Background(), mission)
		require.ErrorIs(t, err, ErrEmptyMission)
		assert.Nil(t, res)
	}
	assert.Zero(t, gen.calls(), "no network calls for blank missions")
}

func TestRunCriticalFailureAbortsRun(t *testing.T) {
	gen := &fakeGenerator{structuredErr: fmt.Errorf("upstream unavailable")}
	r := New(Options{Generator: gen})

	res, err := r.Run(context.Background(), "Sell eco-friendly socks")
	require.ErrorIs(t, err, ErrCriticalStage)
	require.NotNil(t, res)

	assert.Nil(t, res.Bible)
	assert.Nil(t, res.Logos)
	assert.Empty(t, res.BrandVoice)
	assert.Equal(t, []string{criticalFailureLine}, res.Errors)

	// Only the single critical call went out.
	assert.Equal(t, 1, gen.calls())
}

func TestRunCriticalStructuralValidation(t *testing.T) {
	// Palette of 3 fails the palette-length invariant.
	gen := &fakeGenerator{structuredJSON: `{
		"brandName": "X",
		"palette": [
			{"hex": "#111111", "name": "A", "usage": "P"},
			{"hex": "#222222", "name": "B", "usage": "S"},
			{"hex": "#333333", "name": "C", "usage": "T"}
		],
		"fonts": {"header": "A", "body": "B", "notes": "n"},
		"logoDescriptions": {"primary": "p", "secondary": ["a", "b"], "favicon": "f"}
	}`}
	r := New(Options{Generator: gen})

	res, err := r.Run(context.Background(), "mission")
	require.ErrorIs(t, err, ErrCriticalStage)
	assert.ErrorIs(t, err, gemini.ErrMalformedResponse)
	assert.Nil(t, res.Bible)
	assert.Equal(t, []string{criticalFailureLine}, res.Errors)
}

func TestRunFullSuccess(t *testing.T) {
	gen := &fakeGenerator{}
	var stages []string
	r := New(Options{
		Generator: gen,
		OnStage:   func(s string) { stages = append(stages, s) },
	})

	res, err := r.Run(context.Background(), "Sell eco-friendly socks")
	require.NoError(t, err)

	require.NotNil(t, res.Bible)
	assert.Len(t, res.Bible.Palette, 5)
	assert.Len(t, res.Bible.LogoDescriptions.Secondary, 2)

	require.NotNil(t, res.Logos)
	assert.NotEmpty(t, res.Logos.Primary)
	assert.Len(t, res.Logos.Secondary, 2)
	assert.NotEmpty(t, res.Logos.Favicon)

	assert.NotEmpty(t, res.BrandVoice)
	assert.Len(t, res.PostIdeas, 5)
	require.NotNil(t, res.Seo)
	assert.Len(t, res.Seo.TitleTags, 3)

	assert.Len(t, res.MoodBoard, 4)
	require.NotNil(t, res.SocialKit)
	assert.NotEmpty(t, res.SocialKit.Banner)
	assert.NotEmpty(t, res.SocialKit.WebsiteBanner)
	assert.Len(t, res.SocialKit.PostTemplates, 3)

	assert.Empty(t, res.Errors)
	assert.Equal(t, "", res.ErrorReport())
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, []string{StageBible, StageLogos, StageVisuals}, stages)
}

func TestIdentityStageIsAllOrNothing(t *testing.T) {
	gen := &fakeGenerator{failImagesWith: []string{"Interlocking thread circles"}}
	r := New(Options{Generator: gen})

	res, err := r.Run(context.Background(), "Sell eco-friendly socks")
	require.NoError(t, err)

	// One failed logo discards the whole identity group.
	assert.Nil(t, res.Logos)
	assert.Empty(t, res.BrandVoice)
	assert.Nil(t, res.PostIdeas)
	assert.Nil(t, res.Seo)
	assert.Equal(t, []string{identityFailureLine}, res.Errors)

	// The run still advanced: the bible and the visuals survive.
	require.NotNil(t, res.Bible)
	assert.Len(t, res.MoodBoard, 4)
	require.NotNil(t, res.SocialKit)
	assert.Len(t, res.SocialKit.PostTemplates, 3)
}

func TestVisualsStageIsBestEffort(t *testing.T) {
	// Fail one mood-board image and the website hero banner; everything
	// else succeeds and must keep its slot.
	gen := &fakeGenerator{failImagesWith: []string{"textured background", "website hero banner"}}
	r := New(Options{Generator: gen})

	res, err := r.Run(context.Background(), "Sell eco-friendly socks")
	require.NoError(t, err)

	assert.Len(t, res.MoodBoard, 3)

	require.NotNil(t, res.SocialKit)
	assert.Empty(t, res.SocialKit.WebsiteBanner, "failed slot stays empty")
	assert.NotEmpty(t, res.SocialKit.Banner, "social banner keeps its slot")
	assert.Len(t, res.SocialKit.PostTemplates, 3)

	assert.Equal(t, []string{visualsFailureLine}, res.Errors)

	// Identity assets are untouched by visual failures.
	require.NotNil(t, res.Logos)
	assert.NotEmpty(t, res.BrandVoice)
}

func TestBothNonCriticalStagesFailing(t *testing.T) {
	gen := &fakeGenerator{
		textErr:        fmt.Errorf("voice model down"),
		failImagesWith: []string{"mood and essence"},
	}
	r := New(Options{Generator: gen})

	res, err := r.Run(context.Background(), "Sell eco-friendly socks")
	require.NoError(t, err)

	require.NotNil(t, res.Bible)
	assert.Nil(t, res.Logos)
	assert.Equal(t, []string{identityFailureLine, visualsFailureLine}, res.Errors)
	assert.Equal(t, identityFailureLine+"\n"+visualsFailureLine, res.ErrorReport())

	// Best effort still kept the three surviving mood images.
	assert.Len(t, res.MoodBoard, 3)
}

func TestFaviconIsOptional(t *testing.T) {
	noFavicon := strings.Replace(validBibleJSON,
		`"favicon": "A simplified leaf glyph"`, `"favicon": ""`, 1)
	gen := &fakeGenerator{structuredJSON: noFavicon}
	r := New(Options{Generator: gen})

	res, err := r.Run(context.Background(), "mission")
	require.NoError(t, err)

	require.NotNil(t, res.Logos)
	assert.Empty(t, res.Logos.Favicon)
	assert.Empty(t, res.Errors, "missing favicon is not a failure")

	for _, prompt := range gen.imagePrompts {
		assert.NotContains(t, prompt, "leaf glyph", "no favicon call was launched")
	}
}

func TestRunsAreIsolated(t *testing.T) {
	gen := &fakeGenerator{}
	r := New(Options{Generator: gen})

	first, err := r.Run(context.Background(), "mission one")
	require.NoError(t, err)
	second, err := r.Run(context.Background(), "mission two")
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, "mission one", first.Mission)
	assert.Equal(t, "mission two", second.Mission)
}

func TestImageAspectRatios(t *testing.T) {
	gen := &fakeGenerator{}
	r := New(Options{Generator: gen})

	_, err := r.Run(context.Background(), "Sell eco-friendly socks")
	require.NoError(t, err)

	wide := 0
	for _, aspect := range gen.imageAspects {
		switch aspect {
		case "16:9":
			wide++
		case "1:1":
		default:
			t.Fatalf("unexpected aspect ratio %q", aspect)
		}
	}
	assert.Equal(t, 2, wide, "both banners are 16:9")
}
