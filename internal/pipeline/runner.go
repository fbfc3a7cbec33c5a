package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"branding-bible/internal/brand"
	"branding-bible/internal/gemini"
)

var (
	// ErrEmptyMission rejects blank submissions before any network call.
	ErrEmptyMission = errors.New("pipeline: mission text is empty")

	// ErrCriticalStage marks a run aborted because the brand bible could
	// not be generated.
	ErrCriticalStage = errors.New("pipeline: critical stage failed")
)

const (
	criticalFailureLine = "Failed to generate the core brand identity. The AI may have had an issue understanding the request. Please try refining your mission statement and resubmitting."
	identityFailureLine = "Failed to generate logos and brand voice. This can be a temporary issue with the image generation service."
	visualsFailureLine  = "Failed to create the mood board and social media kit."

	StageBible   = "Generating brand identity text..."
	StageLogos   = "Generating logos & brand voice..."
	StageVisuals = "Creating mood board & social media kit..."
)

// Generator is the slice of the AI gateway the pipeline needs. The real
// implementation is *gemini.Client.
type Generator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *gemini.Schema) (json.RawMessage, error)
	GenerateImage(ctx context.Context, prompt, aspectRatio string, logoStyle bool) (string, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Generator Generator
	Logger    *slog.Logger

	// OnStage is invoked with a progress message as each stage starts.
	OnStage func(stage string)
}

type Runner struct {
	gen     Generator
	logger  *slog.Logger
	onStage func(string)
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		gen:     opts.Generator,
		logger:  logger,
		onStage: opts.OnStage,
	}
}

// Run executes one full generation: the critical brand-bible stage, then
// the all-or-nothing identity stage (logos, voice, post ideas, SEO), then
// the best-effort visual-assets stage. The returned Result carries
// whatever succeeded plus one error line per failed stage.
//
// Each invocation works on its own Result, so concurrent invocations do
// not corrupt each other; serializing submissions is the caller's job.
func (r *Runner) Run(ctx context.Context, mission string) (*Result, error) {
	if strings.TrimSpace(mission) == "" {
		return nil, ErrEmptyMission
	}

	res := &Result{
		RunID:   uuid.NewString(),
		Mission: mission,
	}

	r.stage(StageBible)
	bible, err := r.generateBible(ctx, mission)
	if err != nil {
		r.logger.Error("brand bible generation failed", "run_id", res.RunID, "err", err)
		res.Errors = append(res.Errors, criticalFailureLine)
		return res, fmt.Errorf("%w: %v", ErrCriticalStage, err)
	}
	res.Bible = bible
	r.logger.Info("brand bible generated", "run_id", res.RunID, "brand", bible.BrandName)

	r.stage(StageLogos)
	r.runIdentityStage(ctx, mission, bible, res)

	r.stage(StageVisuals)
	r.runVisualsStage(ctx, bible, res)

	return res, nil
}

func (r *Runner) generateBible(ctx context.Context, mission string) (*brand.Bible, error) {
	raw, err := r.gen.GenerateStructured(ctx, brand.BiblePrompt(mission), brand.BibleSchema())
	if err != nil {
		return nil, err
	}

	var bible brand.Bible
	if err := json.Unmarshal(raw, &bible); err != nil {
		return nil, fmt.Errorf("%w: decode brand bible: %v", gemini.ErrMalformedResponse, err)
	}
	if err := brand.Validate(&bible); err != nil {
		return nil, fmt.Errorf("%w: %v", gemini.ErrMalformedResponse, err)
	}
	return &bible, nil
}

// runIdentityStage generates logos, brand voice, post ideas and SEO
// recommendations concurrently. The group is all-or-nothing: one failure
// discards every partial output and yields a single error line.
func (r *Runner) runIdentityStage(ctx context.Context, mission string, bible *brand.Bible, res *Result) {
	var (
		logos brand.GeneratedLogos
		voice string
		posts []string
		seo   brand.SeoRecommendations
	)
	logos.Secondary = make([]string, len(bible.LogoDescriptions.Secondary))

	// Plain errgroup, no shared cancellation: the stage settles every
	// launched call even when one of them has already failed.
	var eg errgroup.Group

	eg.Go(func() error {
		img, err := r.gen.GenerateImage(ctx, bible.LogoDescriptions.Primary, "1:1", true)
		if err != nil {
			return fmt.Errorf("primary logo: %w", err)
		}
		logos.Primary = img
		return nil
	})

	for i, desc := range bible.LogoDescriptions.Secondary {
		i, desc := i, desc
		eg.Go(func() error {
			img, err := r.gen.GenerateImage(ctx, desc, "1:1", true)
			if err != nil {
				return fmt.Errorf("secondary logo %d: %w", i, err)
			}
			logos.Secondary[i] = img
			return nil
		})
	}

	// Favicon is an optional member; its absence from the bible is not a
	// failure.
	if strings.TrimSpace(bible.LogoDescriptions.Favicon) != "" {
		eg.Go(func() error {
			img, err := r.gen.GenerateImage(ctx, bible.LogoDescriptions.Favicon, "1:1", true)
			if err != nil {
				return fmt.Errorf("favicon: %w", err)
			}
			logos.Favicon = img
			return nil
		})
	}

	eg.Go(func() error {
		text, err := r.gen.GenerateText(ctx, brand.VoicePrompt(mission, bible))
		if err != nil {
			return fmt.Errorf("brand voice: %w", err)
		}
		voice = text
		return nil
	})

	eg.Go(func() error {
		raw, err := r.gen.GenerateStructured(ctx, brand.PostIdeasPrompt(mission, bible), brand.PostIdeasSchema())
		if err != nil {
			return fmt.Errorf("post ideas: %w", err)
		}
		var decoded struct {
			Posts []string `json:"posts"`
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("post ideas: %w: %v", gemini.ErrMalformedResponse, err)
		}
		posts = decoded.Posts
		return nil
	})

	eg.Go(func() error {
		raw, err := r.gen.GenerateStructured(ctx, brand.SeoPrompt(mission, bible), brand.SeoSchema())
		if err != nil {
			return fmt.Errorf("seo recommendations: %w", err)
		}
		if err := json.Unmarshal(raw, &seo); err != nil {
			return fmt.Errorf("seo recommendations: %w: %v", gemini.ErrMalformedResponse, err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		r.logger.Warn("identity stage failed", "run_id", res.RunID, "err", err)
		res.Errors = append(res.Errors, identityFailureLine)
		return
	}

	res.Logos = &logos
	res.BrandVoice = voice
	res.PostIdeas = posts
	res.Seo = &seo
}

// runVisualsStage generates the mood board and the social media kit. Every
// image call is independent: successes keep their positional slot and
// failures only contribute to a single aggregated error line.
func (r *Runner) runVisualsStage(ctx context.Context, bible *brand.Bible, res *Result) {
	moodPrompts := brand.MoodBoardPrompts(bible)

	type imageCall struct {
		prompt string
		aspect string
	}
	calls := make([]imageCall, 0, len(moodPrompts)+5)
	for _, p := range moodPrompts {
		calls = append(calls, imageCall{prompt: p, aspect: "1:1"})
	}
	kitStart := len(calls)
	calls = append(calls,
		imageCall{prompt: brand.WebsiteBannerPrompt(bible), aspect: "16:9"},
		imageCall{prompt: brand.SocialBannerPrompt(bible), aspect: "16:9"},
	)
	for _, p := range brand.PostTemplatePrompts(bible) {
		calls = append(calls, imageCall{prompt: p, aspect: "1:1"})
	}

	images := make([]string, len(calls))
	errs := make([]error, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		go func() {
			defer wg.Done()
			images[i], errs[i] = r.gen.GenerateImage(ctx, call.prompt, call.aspect, false)
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		r.logger.Warn("visuals stage partially failed", "run_id", res.RunID, "failed", failed, "total", len(calls))
		res.Errors = append(res.Errors, visualsFailureLine)
	}

	moodBoard := make([]string, 0, kitStart)
	for i := 0; i < kitStart; i++ {
		if errs[i] == nil {
			moodBoard = append(moodBoard, images[i])
		}
	}

	kit := &brand.SocialMediaKitAssets{}
	if errs[kitStart] == nil {
		kit.WebsiteBanner = images[kitStart]
	}
	if errs[kitStart+1] == nil {
		kit.Banner = images[kitStart+1]
	}
	for i := kitStart + 2; i < len(calls); i++ {
		if errs[i] == nil {
			kit.PostTemplates = append(kit.PostTemplates, images[i])
		}
	}

	res.MoodBoard = moodBoard
	res.SocialKit = kit
}

func (r *Runner) stage(name string) {
	if r.onStage != nil {
		r.onStage(name)
	}
}
