package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trustylads/internal/domain"
	"trustylads/internal/service"
)

// Bot is the Telegram transport: it turns updates into core events, hands
// them to the dispatcher and renders the responses. All label-to-action
// mapping lives here, the core only sees choice ids.
type Bot struct {
	api        *tgbotapi.BotAPI
	dispatcher *service.Dispatcher
}

func New(token string, dispatcher *service.Dispatcher) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, dispatcher: dispatcher}, nil
}

// Self returns the bot's own username, for startup logging.
func (b *Bot) Self() string { return b.api.Self.UserName }

// Run long-polls Telegram until ctx is cancelled. Each update is handled in
// its own goroutine; per-user ordering is the dispatcher's job.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, chatID, ok := eventFromUpdate(update)
	if !ok {
		return
	}
	if update.CallbackQuery != nil {
		// stop the client-side spinner
		if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			slog.Warn("answer callback failed", "err", err)
		}
	}

	resp := b.dispatcher.Dispatch(ctx, ev)

	msg := tgbotapi.NewMessage(chatID, resp.Text)
	if len(resp.Choices) > 0 {
		msg.ReplyMarkup = inlineKeyboard(resp.Choices)
	} else if ev.Kind == domain.EventChoice && ev.ChoiceID == domain.ChoiceStart {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("send message failed", "chat_id", chatID, "err", err)
	}
}

// eventFromUpdate maps a Telegram update onto a core event. Reply-keyboard
// presses arrive as plain text, so known menu labels are translated to their
// choice ids here; everything else stays a text event.
func eventFromUpdate(update tgbotapi.Update) (domain.Event, int64, bool) {
	switch {
	case update.Message != nil:
		m := update.Message
		ev := domain.Event{
			Kind:     domain.EventText,
			UserID:   m.From.ID,
			UserName: displayName(m.From),
			Text:     m.Text,
		}
		switch {
		case m.IsCommand() && m.Command() == "start":
			ev.Kind = domain.EventChoice
			ev.ChoiceID = domain.ChoiceStart
		case m.IsCommand() && m.Command() == "help":
			ev.Kind = domain.EventChoice
			ev.ChoiceID = domain.ChoiceHelp
		case m.IsCommand():
			return domain.Event{}, 0, false
		default:
			if id, ok := menuLabels[m.Text]; ok {
				ev.Kind = domain.EventChoice
				ev.ChoiceID = id
			}
		}
		return ev, m.Chat.ID, true

	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.Message == nil {
			return domain.Event{}, 0, false
		}
		ev := domain.Event{
			Kind:     domain.EventChoice,
			UserID:   q.From.ID,
			UserName: displayName(q.From),
			ChoiceID: q.Data,
		}
		return ev, q.Message.Chat.ID, true
	}
	return domain.Event{}, 0, false
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if name == "" {
		name = u.UserName
	}
	return name
}
