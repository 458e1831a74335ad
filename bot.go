package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// What the bot is waiting for from a chat, after a connect command.
const (
	awaitingNothing = iota
	awaitingQueraSession
	awaitingGoogleAuthCode
)

// Bot is the Telegram front-end. Presentation only: everything it does goes
// through the scheduler and the credential store.
type Bot struct {
	api       *tgbotapi.BotAPI
	store     *Store
	scheduler *Scheduler
	source    *QueraSource
	factory   AdapterFactory
	logger    *log.Logger

	mu      sync.Mutex
	pending map[int64]int
}

func NewBot(token string, store *Store, scheduler *Scheduler, source *QueraSource, factory AdapterFactory) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error connecting to Telegram: %w", err)
	}
	return &Bot{
		api:       api,
		store:     store,
		scheduler: scheduler,
		source:    source,
		factory:   factory,
		logger:    log.New(os.Stderr, "[bot] ", log.LstdFlags),
		pending:   make(map[int64]int),
	}, nil
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Printf("Bot is running as @%s", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Channel posts carry no sender; there is no account to act on.
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.setPending(chatID, awaitingNothing)
		switch msg.Command() {
		case "start":
			b.reply(chatID, "👋 Welcome to EduSync!\n\n"+
				"I mirror your Quera assignment deadlines onto your calendar.\n\n"+
				"/connect_quera — link your Quera account\n"+
				"/connect_calendar — link Google Calendar\n"+
				"/sync — sync now\n"+
				"/autosync — toggle periodic syncing\n"+
				"/status — connection and last-sync status\n"+
				"/disconnect — delete your account data\n"+
				"/help — all commands")
		case "help":
			b.reply(chatID, "Available commands:\n\n"+
				"/connect_quera — link your Quera account (session cookie)\n"+
				"/connect_calendar — link Google Calendar (OAuth)\n"+
				"/sync — sync your assignments now\n"+
				"/autosync — toggle automatic syncing\n"+
				"/status — show connections and last sync\n"+
				"/disconnect — remove your synced events and data\n"+
				"/cancel — abort the current setup step")
		case "cancel":
			b.reply(chatID, "Setup cancelled. Use /help to see what I can do.")
		case "connect_quera":
			b.reply(chatID, "Let's connect your Quera account.\n\n"+
				"I need your Quera session ID. To get it:\n"+
				"1. Go to quera.org and log in\n"+
				"2. Open the browser's developer tools (F12)\n"+
				"3. Go to Application/Storage > Cookies\n"+
				"4. Copy the value of 'session_id'\n\n"+
				"Now send me the session ID:")
			b.setPending(chatID, awaitingQueraSession)
		case "connect_calendar":
			b.reply(chatID, "To connect Google Calendar:\n"+
				"1. Visit this URL: "+authCodeURL()+"\n"+
				"2. Sign in and authorize the app\n"+
				"3. Send me the code you receive\n\n"+
				"I'm waiting for the code...")
			b.setPending(chatID, awaitingGoogleAuthCode)
		case "sync":
			b.handleSync(ctx, userID, chatID)
		case "autosync":
			b.handleAutoSync(userID, chatID)
		case "status":
			b.handleStatus(userID, chatID)
		case "disconnect":
			b.handleDisconnect(ctx, userID, chatID)
		default:
			b.reply(chatID, "Unknown command. Use /help to see what I can do.")
		}
		return
	}

	switch b.getPending(chatID) {
	case awaitingQueraSession:
		b.setPending(chatID, awaitingNothing)
		b.handleQueraSession(ctx, userID, chatID, strings.TrimSpace(msg.Text))
	case awaitingGoogleAuthCode:
		b.setPending(chatID, awaitingNothing)
		b.handleGoogleAuthCode(ctx, userID, chatID, strings.TrimSpace(msg.Text))
	default:
		b.reply(chatID, "Use /help to see what I can do.")
	}
}

func (b *Bot) handleQueraSession(ctx context.Context, userID, chatID int64, sessionID string) {
	if !b.source.ValidateSession(ctx, sessionID) {
		b.reply(chatID, "❌ Invalid or expired Quera session ID.\nPlease check and try /connect_quera again.")
		return
	}

	user, err := b.store.GetUser(userID)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if user == nil {
		user = &UserSyncState{UserID: userID}
	}
	user.ChatID = chatID
	user.SessionToken = sessionID
	// A fresh credential clears a stale auth_expired verdict.
	if user.LastSyncStatus == StatusAuthExpired {
		user.LastSyncStatus = ""
	}
	if err := b.store.SaveUser(user); err != nil {
		b.internalError(chatID, err)
		return
	}

	if user.CalendarToken == nil {
		b.reply(chatID, "✅ Quera account connected!\n\nNow link your calendar with /connect_calendar.")
	} else {
		b.reply(chatID, "✅ Quera account connected!\n\nYou're all set — try /sync, or enable /autosync.")
	}
}

func (b *Bot) handleGoogleAuthCode(ctx context.Context, userID, chatID int64, code string) {
	token, err := exchangeAuthCode(ctx, code)
	if err != nil {
		b.logger.Printf("Auth code exchange failed for user %d: %v", userID, err)
		b.reply(chatID, "❌ Failed to complete Google Calendar authentication.\n"+
			"The code might be invalid or expired. Please try /connect_calendar again.")
		return
	}

	user, err := b.store.GetUser(userID)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if user == nil {
		user = &UserSyncState{UserID: userID}
	}
	user.ChatID = chatID
	user.CalendarToken = token
	if user.LastSyncStatus == StatusAuthExpired {
		user.LastSyncStatus = ""
	}
	if err := b.store.SaveUser(user); err != nil {
		b.internalError(chatID, err)
		return
	}

	if user.SessionToken == "" {
		b.reply(chatID, "🎉 Google Calendar connected!\n\nNow link Quera with /connect_quera.")
	} else {
		b.reply(chatID, "🎉 Google Calendar connected!\n\nYou're all set — try /sync, or enable /autosync.")
	}
}

func (b *Bot) handleSync(ctx context.Context, userID, chatID int64) {
	b.reply(chatID, "🔄 Starting sync...\nThis may take a few moments.")

	report, err := b.scheduler.TriggerManualSync(ctx, userID)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		b.reply(chatID, "⏳ A sync is already running for you. Hang on.")
		return
	case errors.Is(err, ErrNotLinked):
		b.reply(chatID, "❌ Please connect both Quera (/connect_quera) and your calendar (/connect_calendar) first.")
		return
	case err != nil:
		b.logger.Printf("Sync failed for user %d: %v", userID, err)
		b.reply(chatID, "❌ An error occurred during sync. Please try again later.")
		return
	}

	b.reply(chatID, formatReport(report))
}

func (b *Bot) handleAutoSync(userID, chatID int64) {
	enabled, err := b.scheduler.ToggleAutoSync(userID)
	if err != nil {
		b.reply(chatID, "❌ Please set up your accounts first with /start.")
		return
	}
	if enabled {
		b.reply(chatID, "🟢 Auto-sync has been enabled!\nYour calendar will be synced periodically.\nUse /autosync again to disable it.")
	} else {
		b.reply(chatID, "🔴 Auto-sync has been disabled.")
	}
}

func (b *Bot) handleStatus(userID, chatID int64) {
	user, err := b.store.GetUser(userID)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if user == nil {
		b.reply(chatID, "You have nothing connected yet. Start with /connect_quera and /connect_calendar.")
		return
	}

	check := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}
	autoSync := "off"
	if user.AutoSync {
		autoSync = "on"
	}
	lastSync := "never"
	if !user.LastSyncAt.IsZero() {
		lastSync = fmt.Sprintf("%s (%s)", user.LastSyncAt.Format("2006-01-02 15:04 MST"), user.LastSyncStatus)
	}

	b.reply(chatID, fmt.Sprintf("📊 Status:\n"+
		"• Quera: %s\n"+
		"• Calendar: %s\n"+
		"• Auto-sync: %s\n"+
		"• Last sync: %s",
		check(user.SessionToken != ""), check(user.CalendarToken != nil || user.Provider == "caldav"),
		autoSync, lastSync))
}

func (b *Bot) handleDisconnect(ctx context.Context, userID, chatID int64) {
	user, err := b.store.GetUser(userID)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if user == nil {
		b.reply(chatID, "You don't have any accounts connected yet.")
		return
	}

	// Best effort: sweep our events off the calendar before dropping the
	// credentials that let us reach it.
	if user.Linked() || user.CalendarToken != nil {
		if cal, err := b.factory.AdapterFor(ctx, user); err == nil {
			if n, err := purgeSyncedEvents(ctx, cal); err != nil {
				b.logger.Printf("Partial cleanup for user %d after %d deletions: %v", userID, n, err)
			}
		}
	}

	if err := b.store.ClearUser(userID); err != nil {
		b.internalError(chatID, err)
		return
	}
	b.reply(chatID, "✅ Your account has been deleted.\nYou can set up again anytime with /connect_quera and /connect_calendar.")
}

func formatReport(report *SyncReport) string {
	if report.Status == StatusAuthExpired {
		return "❌ Your credentials have expired.\n" +
			"Please reconnect with /connect_quera or /connect_calendar, then /sync again."
	}

	statusEmoji := "✅"
	if report.Failed > 0 {
		statusEmoji = "⚠️"
	}
	text := fmt.Sprintf("%s Sync completed!\n\n"+
		"📊 Summary:\n"+
		"• %d new assignments added\n"+
		"• %d assignments updated\n"+
		"• %d already up to date\n"+
		"• %d failed to sync",
		statusEmoji, report.Created, report.Updated, report.Unchanged, report.Failed)
	if report.Deleted > 0 {
		text += fmt.Sprintf("\n• %d stale events removed", report.Deleted)
	}
	if report.Skipped > 0 {
		text += fmt.Sprintf("\n• %d records skipped (no deadline)", report.Skipped)
	}
	return text
}

// NotifyAutoSyncOutcome sends the user a message after a periodic sync when
// something changed or their credentials died.
func (b *Bot) NotifyAutoSyncOutcome(chatID int64, report *SyncReport) {
	if report.Status == StatusAuthExpired {
		b.reply(chatID, "❌ Auto-sync failed: your credentials have expired.\n"+
			"Please reconnect with /connect_quera or /connect_calendar.")
		return
	}
	if report.Changed() {
		b.reply(chatID, "✅ Auto-sync complete!\n\n"+formatReport(report))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) internalError(chatID int64, err error) {
	b.logger.Printf("Internal error: %v", err)
	b.reply(chatID, "❌ Something went wrong on my side. Please try again later.")
}

func (b *Bot) setPending(chatID int64, state int) {
	b.mu.Lock()
	b.pending[chatID] = state
	b.mu.Unlock()
}

func (b *Bot) getPending(chatID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[chatID]
}
