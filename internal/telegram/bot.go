package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"elior-fitness/internal/backend"
	"elior-fitness/internal/clipper"
	"elior-fitness/internal/config"
	"elior-fitness/internal/metrics"
	"elior-fitness/internal/nutrition"
	"elior-fitness/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🥗 *Elior Fitness Bot*

/bank <protein|carb|fat> - list meal bank foods
/import <protein|carb|fat> <url> - add a food from a nutrition page
/metrics - usage and health report (admin)
/help - this message`

// Bot wraps the Telegram API, the meal bank, and the food importer.
type Bot struct {
	api          *tgbotapi.BotAPI
	bank         backend.Client
	clipper      *clipper.Clipper
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the webhook when one is
// configured. clipper and metricsStore may be nil.
func NewBot(cfg *config.Config, bank backend.Client, clipper *clipper.Clipper, metricsStore *metrics.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		log.Printf("Webhook set response: %s", resp.Description)
	}

	return newBot(api, cfg, bank, clipper, metricsStore), nil
}

func newBot(api *tgbotapi.BotAPI, cfg *config.Config, bank backend.Client, clipper *clipper.Clipper, metricsStore *metrics.Store) *Bot {
	return &Bot{
		api:          api,
		bank:         bank,
		clipper:      clipper,
		metricsStore: metricsStore,
		cfg:          cfg,
	}
}

// HandleWebhook receives Telegram updates.
func (b *Bot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !b.isAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(userID int64) bool {
	if userID == b.cfg.AdminTelegramID && userID != 0 {
		return true
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}

	// Commands may be addressed as /bank@BotName in groups.
	command, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch command {
	case "/metrics":
		b.handleMetricsRequest(msg)
	case "/bank":
		b.handleBankRequest(msg.Chat.ID, args)
	case "/import":
		b.handleImportRequest(msg.Chat.ID, args)
	default:
		b.sendMarkdown(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⛔ Access Denied: Admin only."))
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleBankRequest(chatID int64, args []string) {
	if len(args) == 0 {
		b.sendMarkdown(chatID, "Usage: /bank <protein|carb|fat>")
		return
	}
	macro, ok := nutrition.NormalizeMacroType(args[0])
	if !ok {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ Unknown macro type: %s", escapeMarkdown(args[0])))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := b.bank.ListMealBank(ctx, macro)
	if err != nil {
		log.Printf("Error listing meal bank: %v", err)
		b.sendMarkdown(chatID, "❌ Error fetching the meal bank.")
		return
	}
	b.sendMarkdown(chatID, formatBankMarkdown(macro, items))
}

func (b *Bot) handleImportRequest(chatID int64, args []string) {
	if b.clipper == nil {
		b.sendMarkdown(chatID, "❌ Food import is not configured.")
		return
	}
	if len(args) < 2 {
		b.sendMarkdown(chatID, "Usage: /import <protein|carb|fat> <url>")
		return
	}
	macro, ok := nutrition.NormalizeMacroType(args[0])
	if !ok {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ Unknown macro type: %s", escapeMarkdown(args[0])))
		return
	}

	sentMsg, err := b.sendMarkdown(chatID, "✂️ *Importing food...*")
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var finalText string
	item, err := b.clipper.ClipURL(ctx, args[1], macro, false)
	if err != nil {
		log.Printf("Error importing food: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error importing food:*\n```\n%v\n```", safeErr)
	} else {
		finalText = fmt.Sprintf("✅ *Food Saved!*\n\n%s", formatBankItem(*item))
	}
	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.api.Send(edit)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	if b.metricsStore == nil {
		b.sendMarkdown(chatID, "❌ Metrics are not configured.")
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}

	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))
	b.sendMarkdown(chatID, formatMetricsMarkdown(usage, health))
}

// NotifyPlanSubmitted sends the plan summary to the admin chat. It does
// nothing when no admin is configured.
func (b *Bot) NotifyPlanSubmitted(plan nutrition.MealPlan, submitted *backend.SubmittedPlan, summary *planner.Summary) error {
	if b.cfg.AdminTelegramID == 0 {
		return nil
	}
	if _, err := b.sendMarkdown(b.cfg.AdminTelegramID, formatPlanSummaryMarkdown(plan, submitted, summary)); err != nil {
		return fmt.Errorf("failed to send plan notification: %w", err)
	}
	return nil
}

func (b *Bot) sendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return b.api.Send(msg)
}
