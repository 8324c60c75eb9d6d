package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"familyreads/internal/models"
	"familyreads/internal/progress"
)

// avatars offered when a reader is added
var avatars = []string{"😀", "👧", "👦", "👩‍🦰", "👨‍🦰", "👵", "👴", "🐶", "🐱", "🦄", "🤖"}

// sendMessage sends any chattable, logging failures
func (b *Bot) sendMessage(c tgbotapi.Chattable) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	b.sendMessage(msg)
}

// record appends an activity to the journal. Journal failures never undo
// a state change, they are only logged.
func (b *Bot) record(ctx context.Context, a models.Activity) {
	a.ID = uuid.New()
	a.At = b.now()
	if err := b.db.RecordActivity(ctx, a); err != nil {
		b.logger.Error("Failed to record activity",
			zap.Error(err),
			zap.String("kind", string(a.Kind)),
			zap.Int64("reader_id", a.ReaderID),
		)
	}
}

// activity starts an activity for the given reader
func activity(kind models.ActivityKind, r models.Reader) models.Activity {
	return models.Activity{
		Kind:       kind,
		ReaderID:   int64(r.ID),
		ReaderName: r.Name,
	}
}

// buttonRows lays buttons out in rows of perRow
func buttonRows(buttons []tgbotapi.InlineKeyboardButton, perRow int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for start := 0; start < len(buttons); start += perRow {
		end := min(start+perRow, len(buttons))
		rows = append(rows, buttons[start:end])
	}
	return rows
}

// progressBar renders a percentage as ten blocks
func progressBar(pct int) string {
	filled := progress.Clamp(pct, 100) / 10
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}

func readerLabel(r models.Reader) string {
	return fmt.Sprintf("%s %s", r.Avatar, r.Name)
}

func readerNames(readers []models.Reader) string {
	names := make([]string, 0, len(readers))
	for _, r := range readers {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}

// describeActivity renders a journal entry as one line
func describeActivity(a models.Activity) string {
	switch a.Kind {
	case models.ActivityReaderAdded:
		return fmt.Sprintf("%s joined the family", a.ReaderName)
	case models.ActivityReaderSwitched:
		return fmt.Sprintf("%s became the current reader", a.ReaderName)
	case models.ActivityParticipantsUpdated:
		return fmt.Sprintf("%s now has %d participant(s)", a.ChallengeTitle, a.Amount)
	case models.ActivityChallengeProgress:
		return fmt.Sprintf("%s added %d to %s", a.ReaderName, a.Amount, a.ChallengeTitle)
	case models.ActivityBookStarted:
		return fmt.Sprintf("%s started '%s'", a.ReaderName, a.BookTitle)
	case models.ActivityProgressLogged:
		return fmt.Sprintf("%s read '%s' for %d min", a.ReaderName, a.BookTitle, a.Amount)
	case models.ActivityBookFinished:
		return fmt.Sprintf("%s finished '%s'", a.ReaderName, a.BookTitle)
	case models.ActivityStampCollected:
		return fmt.Sprintf("%s collected a stamp at %s", a.ReaderName, a.BookTitle)
	default:
		return fmt.Sprintf("%s: %s", a.ReaderName, a.Kind)
	}
}
