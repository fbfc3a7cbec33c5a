package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"branding-bible/internal/brand"
	"branding-bible/internal/chat"
	"branding-bible/internal/debounce"
	"branding-bible/internal/pipeline"
	"branding-bible/internal/session"
	"branding-bible/internal/telegram"
)

type Options struct {
	Telegram  *telegram.Client
	Generator pipeline.Generator
	Sessions  *session.Store
	Logger    *slog.Logger
}

type Handler struct {
	tg       *telegram.Client
	gen      pipeline.Generator
	sessions *session.Store
	logger   *slog.Logger

	aggregator *debounce.Aggregator

	mu       sync.Mutex
	lastRuns map[int64]*pipeline.Result
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		gen:      opts.Generator,
		sessions: opts.Sessions,
		logger:   logger,
		lastRuns: make(map[int64]*pipeline.Result),
	}
}

func (h *Handler) SetAggregator(ag *debounce.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, msg)
	}

	if msg.Text != "" {
		// Plain text goes to the branding chat; rapid successive
		// messages are debounced into one turn.
		if h.aggregator != nil {
			h.aggregator.Add(debounce.Item{ChatID: chatID, UserID: userID, Text: msg.Text})
			return nil
		}
		h.HandleTurn(ctx, debounce.Turn{ChatID: chatID, UserID: userID, Text: msg.Text})
	}

	return nil
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, userID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID,
			"Branding Bible Bot\n\n"+
				"Describe your company mission and I'll build a full brand identity for it.\n\n"+
				"Commands:\n"+
				"/brand <mission> - Generate a brand bible\n"+
				"/export - Download the latest palette, fonts and copy\n"+
				"/clear - Reset the branding chat\n"+
				"/help - Help\n\n"+
				"Any other message starts a conversation with the branding assistant.",
		)
	case "help":
		return h.tg.SendText(chatID,
			"Send /brand followed by your company mission to generate a brand bible: "+
				"name, colors, fonts, logos, mood board and social kit.\n"+
				"Plain messages go to the branding assistant.\n"+
				"/export sends the latest assets as files.\n"+
				"/clear wipes the conversation.",
		)
	case "clear":
		h.sessions.Clear(sessionKey(userID))
		return h.tg.SendText(chatID, "Conversation history cleared.")
	case "brand":
		mission := strings.TrimSpace(msg.CommandArguments())
		return h.handleBrand(ctx, chatID, mission)
	case "export":
		return h.handleExport(chatID)
	default:
		return h.tg.SendText(chatID, "Unknown command. Try /help.")
	}
}

func (h *Handler) handleBrand(ctx context.Context, chatID int64, mission string) error {
	runner := pipeline.New(pipeline.Options{
		Generator: h.gen,
		Logger:    h.logger,
		OnStage: func(stage string) {
			h.tg.SendTyping(chatID)
			_ = h.tg.SendText(chatID, stage)
		},
	})

	res, err := runner.Run(ctx, mission)
	switch {
	case errors.Is(err, pipeline.ErrEmptyMission):
		return h.tg.SendText(chatID, "Please include your mission, e.g. /brand Sell eco-friendly socks")
	case errors.Is(err, pipeline.ErrCriticalStage):
		h.logger.Error("brand generation aborted", "err", err)
		return h.tg.SendText(chatID, res.ErrorReport())
	case err != nil:
		h.logger.Error("brand generation failed", "err", err)
		return h.tg.SendText(chatID, "Something went wrong. Please try again.")
	}

	h.mu.Lock()
	h.lastRuns[chatID] = res
	h.mu.Unlock()

	if err := h.tg.SendText(chatID, formatBibleSummary(res)); err != nil {
		return err
	}
	if err := h.sendRunImages(chatID, res); err != nil {
		return err
	}
	if report := res.ErrorReport(); report != "" {
		return h.tg.SendText(chatID, "Some assets could not be generated:\n"+report)
	}
	return nil
}

func (h *Handler) sendRunImages(chatID int64, res *pipeline.Result) error {
	if res.Logos != nil {
		if err := h.tg.SendPhotoDataURL(chatID, res.Logos.Primary, "Primary logo"); err != nil {
			return err
		}
		for i, img := range res.Logos.Secondary {
			if err := h.tg.SendPhotoDataURL(chatID, img, fmt.Sprintf("Secondary mark %d", i+1)); err != nil {
				return err
			}
		}
		if res.Logos.Favicon != "" {
			if err := h.tg.SendPhotoDataURL(chatID, res.Logos.Favicon, "Favicon"); err != nil {
				return err
			}
		}
	}

	for i, img := range res.MoodBoard {
		caption := ""
		if i == 0 {
			caption = "Mood board"
		}
		if err := h.tg.SendPhotoDataURL(chatID, img, caption); err != nil {
			return err
		}
	}

	if kit := res.SocialKit; kit != nil {
		if kit.WebsiteBanner != "" {
			if err := h.tg.SendPhotoDataURL(chatID, kit.WebsiteBanner, "Website hero banner"); err != nil {
				return err
			}
		}
		if kit.Banner != "" {
			if err := h.tg.SendPhotoDataURL(chatID, kit.Banner, "Social banner"); err != nil {
				return err
			}
		}
		for i, img := range kit.PostTemplates {
			if err := h.tg.SendPhotoDataURL(chatID, img, fmt.Sprintf("Post template %d", i+1)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (h *Handler) handleExport(chatID int64) error {
	h.mu.Lock()
	res := h.lastRuns[chatID]
	h.mu.Unlock()

	if res == nil || res.Bible == nil {
		return h.tg.SendText(chatID, "Nothing to export yet. Run /brand first.")
	}

	palette, err := brand.ExportPaletteJSON(res.Bible.Palette)
	if err != nil {
		return err
	}
	if err := h.tg.SendDocument(chatID, palette.Filename, palette.Data, "Color palette"); err != nil {
		return err
	}

	fonts, err := brand.ExportFontsJSON(res.Bible.Fonts)
	if err != nil {
		return err
	}
	if err := h.tg.SendDocument(chatID, fonts.Filename, fonts.Data, "Typography"); err != nil {
		return err
	}

	if res.BrandVoice != "" {
		voice := brand.ExportVoiceMarkdown(res.BrandVoice)
		if err := h.tg.SendDocument(chatID, voice.Filename, voice.Data, "Brand voice"); err != nil {
			return err
		}
	}
	if len(res.PostIdeas) > 0 {
		posts := brand.ExportPostIdeasMarkdown(res.PostIdeas)
		if err := h.tg.SendDocument(chatID, posts.Filename, posts.Data, "Post ideas"); err != nil {
			return err
		}
	}
	if res.Seo != nil {
		seo, err := brand.ExportSeoJSON(*res.Seo)
		if err != nil {
			return err
		}
		if err := h.tg.SendDocument(chatID, seo.Filename, seo.Data, "SEO recommendations"); err != nil {
			return err
		}
	}

	return nil
}

// HandleTurn feeds one (possibly debounced) message burst into the user's
// branding chat.
func (h *Handler) HandleTurn(ctx context.Context, turn debounce.Turn) {
	h.tg.SendTyping(turn.ChatID)

	ctrl := h.sessions.Get(sessionKey(turn.UserID))
	err := ctrl.SubmitTurn(ctx, turn.Text)
	switch {
	case errors.Is(err, chat.ErrTurnInFlight):
		_ = h.tg.SendText(turn.ChatID, "Still working on your previous message, one moment.")
		return
	case errors.Is(err, chat.ErrEmptyInput):
		return
	case err != nil:
		h.logger.Error("chat turn failed", "err", err)
		_ = h.tg.SendText(turn.ChatID, "Something went wrong. Please try again.")
		return
	}

	transcript := ctrl.Snapshot()
	if len(transcript) == 0 {
		return
	}
	reply := transcript[len(transcript)-1]
	if reply.Role != chat.RoleModel || strings.TrimSpace(reply.Content) == "" {
		return
	}
	if err := h.tg.SendText(turn.ChatID, reply.Content); err != nil {
		h.logger.Error("send chat reply failed", "err", err)
	}
}

func formatBibleSummary(res *pipeline.Result) string {
	b := res.Bible

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - Brand Bible\n\n", b.BrandName)

	sb.WriteString("Colors:\n")
	for _, c := range b.Palette {
		fmt.Fprintf(&sb, "• %s %s - %s\n", c.Hex, c.Name, c.Usage)
	}

	fmt.Fprintf(&sb, "\nTypography: %s / %s\n%s\n", b.Fonts.Header, b.Fonts.Body, b.Fonts.Notes)

	for _, harmony := range b.Harmonies {
		fmt.Fprintf(&sb, "\n%s: ", harmony.Name)
		names := make([]string, 0, len(harmony.Palette))
		for _, c := range harmony.Palette {
			names = append(names, fmt.Sprintf("%s %s", c.Hex, c.Name))
		}
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n")
	}

	if res.BrandVoice != "" {
		fmt.Fprintf(&sb, "\n%s\n", res.BrandVoice)
	}

	if len(res.PostIdeas) > 0 {
		sb.WriteString("\nPost ideas:\n")
		for i, p := range res.PostIdeas {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, p)
		}
	}

	return sb.String()
}

func sessionKey(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}
