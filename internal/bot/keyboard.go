package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trustylads/internal/domain"
)

// main menu labels as shown on the reply keyboard; presses come back as the
// literal text, so this map is the label-to-choice-id dispatch table
var menuLabels = map[string]string{
	"🛒 Browse Products": domain.ChoiceBrowse,
	"🛍️ View Cart":      domain.ChoiceCart,
	"📦 My Orders":       domain.ChoiceOrders,
	"ℹ️ About Us":       domain.ChoiceAbout,
	"📞 Contact Support": domain.ChoiceContact,
	"💰 Offers":          domain.ChoiceOffers,
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🛒 Browse Products"),
			tgbotapi.NewKeyboardButton("🛍️ View Cart"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📦 My Orders"),
			tgbotapi.NewKeyboardButton("ℹ️ About Us"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📞 Contact Support"),
			tgbotapi.NewKeyboardButton("💰 Offers"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// inlineKeyboard renders core choices one per row, like the original bot.
func inlineKeyboard(choices []domain.Choice) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Label, c.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
