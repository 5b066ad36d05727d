package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-email-bot/internal/application"
	"telegram-email-bot/internal/config"
	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/adapter"
	red "telegram-email-bot/internal/infra/redis"
	"telegram-email-bot/internal/infra/worker"
)

const progressEvery = 25

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
// Long work (document parsing, campaign runs) goes through the worker pool so
// polling stays responsive.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.CommandLimiter
	pool        *worker.Pool
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, rateLimiter *red.CommandLimiter, pool *worker.Pool, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	updateWorkers := cfg.Workers
	if updateWorkers <= 0 {
		updateWorkers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		pool:          pool,
		log:           logger,
		adminIDsMap:   adminMap,
		updateWorkers: updateWorkers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// isOperator guards every interaction: this bot is an operator tool,
// not a public one.
func (r *RealTelegramBotAdapter) isOperator(id int64) bool {
	if len(r.adminIDsMap) == 0 {
		return true
	}
	_, ok := r.adminIDsMap[id]
	return ok
}

type cbHandler func(ctx context.Context, chatID int64, data string) error

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cmd:groups": func(ctx context.Context, id int64, _ string) error {
			return r.sendGroupMenu(ctx, id, "Choose a group for the uploaded list:")
		},
		"send:go": func(ctx context.Context, id int64, _ string) error {
			return r.launchCampaign(ctx, id)
		},
		"send:abort": func(ctx context.Context, id int64, _ string) error {
			text, err := r.facade.HandleCancel(ctx, id)
			if err != nil {
				text = "Failed to cancel."
			}
			return r.SendMessage(ctx, id, text)
		},
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []struct {
	Prefix string
	Fn     cbHandler
} {
	return []struct {
		Prefix string
		Fn     cbHandler
	}{
		{
			Prefix: "grp:",
			Fn: func(ctx context.Context, id int64, data string) error {
				code := strings.TrimPrefix(data, "grp:")
				text, err := r.facade.HandleChooseGroup(ctx, id, code)
				if err != nil {
					return r.SendMessage(ctx, id, "Failed to prepare the campaign.")
				}
				rows := [][]adapter.InlineButton{
					{{Text: "Start sending", Data: "send:go"}},
					{{Text: "Abort", Data: "send:abort"}},
				}
				return r.SendButtons(ctx, id, text, rows)
			},
		},
		{
			Prefix: "blk:del:",
			Fn: func(ctx context.Context, id int64, data string) error {
				email := strings.TrimPrefix(data, "blk:del:")
				text, err := r.facade.HandleUnblock(ctx, email)
				if err != nil {
					text = "Failed to unblock."
				}
				return r.SendMessage(ctx, id, text)
			},
		},
	}
}

// SendMessage implements the adapter port.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	msg := tgbotapi.NewMessage(tgID, text)
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with inline buttons using tgbotapi.
func (r *RealTelegramBotAdapter) SendButtons(
	ctx context.Context,
	telegramID int64,
	text string,
	rows [][]adapter.InlineButton,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kr = append(kr, kb)
		}
		kbRows = append(kbRows, kr)
	}

	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}
	chatID := update.Message.Chat.ID
	if !r.isOperator(tgUser.ID) {
		return r.SendMessage(ctx, chatID, "This bot is private.")
	}

	fields := strings.Fields(update.Message.Text)
	command := "message"
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		command = fields[0]
	}
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, tgUser.ID, command)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			return r.SendMessage(ctx, chatID, "Rate limit exceeded. Please try again later.")
		}
	}

	// Document uploads drive the whole flow.
	if update.Message.Document != nil {
		return r.handleDocument(ctx, chatID, update.Message.Document)
	}

	switch command {
	case "/start":
		text, err := r.facade.HandleStart(ctx)
		if err != nil {
			text = "Failed to start."
		}
		return r.SendMessage(ctx, chatID, text)

	case "/help":
		text, _ := r.facade.HandleHelp(ctx)
		return r.SendMessage(ctx, chatID, text)

	case "/groups":
		text, err := r.facade.HandleGroups(ctx)
		if err != nil {
			text = "Failed to list groups."
		}
		return r.SendMessage(ctx, chatID, text)

	case "/send":
		pending, err := r.facade.PendingCampaign(ctx, chatID)
		if err != nil {
			return r.SendMessage(ctx, chatID, "Failed to read the staged list.")
		}
		if pending == nil {
			return r.SendMessage(ctx, chatID, "No uploaded list. Send me a document first.")
		}
		return r.sendGroupMenu(ctx, chatID, fmt.Sprintf("%d addresses staged. Choose a group:", len(pending.Emails)))

	case "/cancel":
		text, err := r.facade.HandleCancel(ctx, chatID)
		if err != nil {
			text = "Failed to cancel."
		}
		return r.SendMessage(ctx, chatID, text)

	case "/block":
		text, err := r.facade.HandleBlock(ctx, fields[1:])
		if err != nil {
			text = "Failed to update the blocklist."
		}
		return r.SendMessage(ctx, chatID, text)

	case "/unblock":
		email := ""
		if len(fields) > 1 {
			email = fields[1]
		}
		text, err := r.facade.HandleUnblock(ctx, email)
		if err != nil {
			text = "Failed to unblock."
		}
		return r.SendMessage(ctx, chatID, text)

	case "/blocked":
		text, err := r.facade.HandleBlocked(ctx)
		if err != nil {
			text = "Failed to read the blocklist."
		}
		return r.SendMessage(ctx, chatID, text)

	case "/stats":
		text, err := r.facade.HandleStats(ctx)
		if err != nil {
			text = "Failed to collect stats."
		}
		return r.SendMessage(ctx, chatID, text)

	case "/report":
		text, err := r.facade.HandleReport(ctx, chatID)
		if err != nil {
			text = "Failed to build the report."
		}
		return r.SendMessage(ctx, chatID, text)

	default:
		if update.Message.Text != "" {
			return r.SendMessage(ctx, chatID, "Upload a document or use /help.")
		}
		return nil
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}
	if !r.isOperator(query.From.ID) {
		return nil
	}

	data := strings.TrimSpace(query.Data)

	if r.rateLimiter != nil {
		if allowed, err := r.rateLimiter.Allow(ctx, chatID, "cb:"+data); err == nil && !allowed {
			return r.SendMessage(ctx, chatID, "Rate limit exceeded. Please try again later.")
		}
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, chatID, data)
		}
	}
	return errors.New("unknown callback data")
}

// handleDocument downloads the file and parses it on the worker pool.
func (r *RealTelegramBotAdapter) handleDocument(ctx context.Context, chatID int64, doc *tgbotapi.Document) error {
	name := doc.FileName
	if name == "" {
		name = doc.FileID
	}
	if err := r.SendMessage(ctx, chatID, fmt.Sprintf("Reading %s ...", name)); err != nil {
		return err
	}

	fileID := doc.FileID
	task := func(ctx context.Context) error {
		data, err := r.downloadFile(ctx, fileID)
		if err != nil {
			return r.SendMessage(ctx, chatID, "Failed to download the file from Telegram.")
		}
		text, err := r.facade.HandleUpload(ctx, chatID, name, data)
		if err != nil {
			r.log.Error().Err(err).Int64("chat_id", chatID).Msg("upload handling failed")
			return r.SendMessage(ctx, chatID, "Failed to process the file.")
		}
		return r.SendMessage(ctx, chatID, text)
	}
	if r.pool == nil {
		return task(ctx)
	}
	if err := r.pool.Submit(task); err != nil {
		return r.SendMessage(ctx, chatID, "Too many files in flight, try again in a minute.")
	}
	return nil
}

func (r *RealTelegramBotAdapter) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// launchCampaign starts the staged campaign on the worker pool and streams
// progress back to the chat.
func (r *RealTelegramBotAdapter) launchCampaign(ctx context.Context, chatID int64) error {
	progress := func(c *model.Campaign, processed, total int) {
		if processed%progressEvery != 0 && processed != total {
			return
		}
		_ = r.SendMessage(ctx, chatID, fmt.Sprintf(
			"Progress: %d/%d (sent %d, errors %d)",
			processed, total, c.Counts[model.OutcomeSent], c.Counts[model.OutcomeError],
		))
	}

	task := func(ctx context.Context) error {
		campaign, err := r.facade.RunPending(ctx, chatID, progress)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrCampaignRunning):
				return r.SendMessage(ctx, chatID, "A campaign is already running in this chat.")
			case errors.Is(err, domain.ErrInvalidArgument):
				return r.SendMessage(ctx, chatID, "Nothing to send: "+err.Error())
			default:
				r.log.Error().Err(err).Int64("chat_id", chatID).Msg("campaign failed to start")
				return r.SendMessage(ctx, chatID, "Campaign failed to start: "+err.Error())
			}
		}
		return r.SendMessage(ctx, chatID, application.CampaignSummary(campaign))
	}
	if r.pool == nil {
		go func() { _ = task(ctx) }()
		return nil
	}
	if err := r.pool.Submit(task); err != nil {
		return r.SendMessage(ctx, chatID, "Workers are saturated, try again shortly.")
	}
	return r.SendMessage(ctx, chatID, "Campaign started.")
}

// sendGroupMenu lists all groups as buttons; pressing one stages the send.
func (r *RealTelegramBotAdapter) sendGroupMenu(ctx context.Context, chatID int64, intro string) error {
	groups, err := r.facade.GroupUC.List(ctx)
	if err != nil || len(groups) == 0 {
		return r.SendMessage(ctx, chatID, "No groups configured.")
	}
	rows := make([][]adapter.InlineButton, 0, len(groups)+1)
	for _, g := range groups {
		label := g.Code
		if g.Title != "" {
			label = g.Code + " — " + g.Title
		}
		rows = append(rows, []adapter.InlineButton{{Text: label, Data: "grp:" + g.Code}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "Abort", Data: "send:abort"}})
	return r.SendButtons(ctx, chatID, intro, rows)
}
