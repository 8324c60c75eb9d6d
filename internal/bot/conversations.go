package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"familyreads/internal/models"
)

// maxNameLength caps reader names, book titles and authors
const maxNameLength = 100

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Command {
	case convAddReader:
		b.handleAddReaderConversation(message, state)
	case convStartBook:
		b.handleStartBookConversation(message, state)
	case convProgress:
		b.handleProgressConversation(ctx, message, state)
	case convLog:
		b.handleLogConversation(ctx, message, state)
	default:
		b.sendText(message.Chat.ID, "Please choose using the buttons above.")
	}

	// Clean up completed conversations
	if state.Step == stepDone {
		b.clearState(message.From.ID)
	}
}

// handleAddReaderConversation handles the reader name step
func (b *Bot) handleAddReaderConversation(message *tgbotapi.Message, state *ConversationState) {
	if state.Step != 1 {
		b.sendText(message.Chat.ID, "Please choose using the buttons above.")
		return
	}

	name, ok := b.readName(message, "name")
	if !ok {
		return
	}

	state.Data["name"] = name
	state.Step = 2

	var buttons []tgbotapi.InlineKeyboardButton
	for i, avatar := range avatars {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(avatar, fmt.Sprintf("avatar:%d", i)))
	}

	b.sendWithKeyboard(message.Chat.ID, fmt.Sprintf("Pick an avatar for %s:", name), tgbotapi.NewInlineKeyboardMarkup(buttonRows(buttons, 4)...))
}

// handleStartBookConversation handles the title and author steps
func (b *Bot) handleStartBookConversation(message *tgbotapi.Message, state *ConversationState) {
	switch state.Step {
	case 1: // Waiting for title
		title, ok := b.readName(message, "title")
		if !ok {
			return
		}
		state.Data["title"] = title
		state.Step = 2
		b.sendText(message.Chat.ID, "✍️ Who is the author? Send - to skip.")

	case 2: // Waiting for author
		author := strings.TrimSpace(message.Text)
		if author == "-" {
			author = ""
		}
		if utf8.RuneCountInString(author) > maxNameLength {
			b.sendText(message.Chat.ID, fmt.Sprintf("❌ The author is too long (max %d characters). Please try again:", maxNameLength))
			return
		}
		state.Data["author"] = author
		state.Step = 3
		b.sendWithKeyboard(message.Chat.ID, "🏁 Does this book count towards a challenge?", b.startBookKeyboard())

	default:
		b.sendText(message.Chat.ID, "Please choose using the buttons above.")
	}
}

// startBookKeyboard lists the current reader's joined challenges first
func (b *Bot) startBookKeyboard() tgbotapi.InlineKeyboardMarkup {
	snap := b.store.Snapshot()
	reader, _ := snap.CurrentReader()

	buttons := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("➖ No challenge", "startbook:0"),
	}
	var others []tgbotapi.InlineKeyboardButton
	for _, c := range snap.Challenges {
		label := fmt.Sprintf("%s %s", c.Badge, c.Title)
		data := fmt.Sprintf("startbook:%d", c.ID)
		if reader.HasJoined(c.ID) {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData("✅ "+label, data))
		} else {
			others = append(others, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
	}

	return tgbotapi.NewInlineKeyboardMarkup(buttonRows(append(buttons, others...), 1)...)
}

// handleProgressConversation handles the amount step
func (b *Bot) handleProgressConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	if state.Step != 2 {
		b.sendText(message.Chat.ID, "Please choose using the buttons above.")
		return
	}

	amount, ok := b.readAmount(message)
	if !ok {
		return
	}

	challengeID, _ := state.Data["challenge"].(models.ChallengeID)
	state.Step = stepDone

	snap := b.store.Snapshot()
	challenge, ok := snap.Challenge(challengeID)
	reader, hasReader := snap.CurrentReader()
	if !ok || !hasReader {
		b.sendText(message.Chat.ID, "❌ That challenge is no longer available.")
		return
	}

	if !b.store.UpdateChallengeProgress(challengeID, amount) {
		if !reader.HasJoined(challengeID) {
			b.sendText(message.Chat.ID, fmt.Sprintf("%s has not joined %s.", reader.Name, challenge.Title))
			return
		}
		b.sendText(message.Chat.ID, fmt.Sprintf("🏅 %s already reached the goal of %s!", reader.Name, challenge.Title))
		return
	}

	a := activity(models.ActivityChallengeProgress, reader)
	a.ChallengeID = int64(challenge.ID)
	a.ChallengeTitle = challenge.Title
	a.Amount = int64(amount)
	b.record(ctx, a)

	b.sendText(message.Chat.ID, "📈 Progress updated!\n"+b.personalProgress(reader.ID, challenge))
}

// handleLogConversation handles the minutes step
func (b *Bot) handleLogConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	if state.Step != 2 {
		b.sendText(message.Chat.ID, "Please choose using the buttons above.")
		return
	}

	minutes, ok := b.readAmount(message)
	if !ok {
		return
	}

	bookID, _ := state.Data["book"].(models.BookID)
	state.Step = stepDone

	if _, ok := b.currentReaderBook(message.Chat.ID, bookID); !ok {
		return
	}
	if !b.store.LogProgress(bookID, minutes) {
		b.sendText(message.Chat.ID, "❌ That book is no longer available.")
		return
	}

	snap := b.store.Snapshot()
	book, _ := snap.Book(bookID)
	reader, _ := snap.CurrentReader()

	a := activity(models.ActivityProgressLogged, reader)
	a.BookTitle = book.Title
	a.Amount = int64(minutes)
	if c, ok := snap.Challenge(book.ChallengeID); ok {
		a.ChallengeID = int64(c.ID)
		a.ChallengeTitle = c.Title
	}
	b.record(ctx, a)

	text := fmt.Sprintf("⏱ Logged %d min on '%s' (%d min in total).", minutes, book.Title, book.ProgressMinutes)
	if c, ok := snap.Challenge(book.ChallengeID); ok && c.Unit == models.UnitMinutes {
		text += "\n" + b.personalProgress(reader.ID, c)
	}
	b.sendText(message.Chat.ID, text)
}

// personalProgress renders one reader's progress in a challenge
func (b *Bot) personalProgress(readerID models.ReaderID, c models.Challenge) string {
	reader, _ := b.store.Snapshot().Reader(readerID)
	summary, _ := b.store.Snapshot().ChallengeSummary(c.ID)
	value := reader.ProgressFor(c.ID)

	text := fmt.Sprintf("%s %s: %d/%d %s", c.Badge, c.Title, value, c.Goal, c.Unit)
	if value >= c.Goal {
		text += " 🏅 Badge earned!"
	}
	return text + fmt.Sprintf("\nFamily total: %d%%", summary.Percentage)
}

// readName reads a trimmed, non-empty, bounded text field
func (b *Bot) readName(message *tgbotapi.Message, field string) (string, bool) {
	value := strings.TrimSpace(message.Text)
	if value == "" {
		b.sendText(message.Chat.ID, fmt.Sprintf("❌ The %s cannot be empty. Please try again:", field))
		return "", false
	}
	if utf8.RuneCountInString(value) > maxNameLength {
		b.sendText(message.Chat.ID, fmt.Sprintf("❌ The %s is too long (max %d characters). Please try again:", field, maxNameLength))
		return "", false
	}
	return value, true
}

// readAmount reads a positive whole number
func (b *Bot) readAmount(message *tgbotapi.Message) (int, bool) {
	amount, err := strconv.Atoi(strings.TrimSpace(message.Text))
	if err != nil || amount <= 0 {
		b.sendText(message.Chat.ID, "❌ Please enter a positive whole number:")
		return 0, false
	}
	return amount, true
}
