package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"familyreads/internal/models"
	"familyreads/internal/state"
)

// handleReaderCallback switches to the selected reader
func (b *Bot) handleReaderCallback(ctx context.Context, query *tgbotapi.CallbackQuery, value string) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}
	b.switchReader(ctx, query.Message.Chat.ID, models.ReaderID(id))
}

// handleAvatarCallback processes avatar selection
func (b *Bot) handleAvatarCallback(query *tgbotapi.CallbackQuery, state *ConversationState, value string) {
	if state.Command != convAddReader || state.Step != 2 {
		return
	}

	idx, err := strconv.Atoi(value)
	if err != nil || idx < 0 || idx >= len(avatars) {
		return
	}

	state.Data["avatar"] = avatars[idx]
	state.Step = 3

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧒 Kids", "age:"+string(models.AgeKids)),
			tgbotapi.NewInlineKeyboardButtonData("🧑 Teens", "age:"+string(models.AgeTeens)),
			tgbotapi.NewInlineKeyboardButtonData("🧓 Adults", "age:"+string(models.AgeAdults)),
		),
	)
	b.sendWithKeyboard(query.Message.Chat.ID, "🎂 Select an age range:", keyboard)
}

// handleAgeCallback finishes the add reader conversation
func (b *Bot) handleAgeCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState, value string) {
	if state.Command != convAddReader || state.Step != 3 {
		return
	}

	age := models.AgeRange(value)
	if !age.Valid() {
		return
	}

	name, _ := state.Data["name"].(string)
	avatar, _ := state.Data["avatar"].(string)
	state.Step = stepDone

	id := b.store.AddReader(name, avatar, age)
	reader, _ := b.store.Snapshot().Reader(id)
	b.record(ctx, activity(models.ActivityReaderAdded, reader))

	b.logger.Info("Reader added",
		zap.Int64("reader_id", int64(id)),
		zap.String("name", name),
		zap.String("age_range", string(age)),
	)

	b.sendText(query.Message.Chat.ID, fmt.Sprintf("Welcome to the family, %s! Use /switch to start reading as %s.", readerLabel(reader), name))
}

// handleJoinChallengeCallback shows participant toggles for a challenge
func (b *Bot) handleJoinChallengeCallback(query *tgbotapi.CallbackQuery, state *ConversationState, value string) {
	if state.Command != convJoin || state.Step != 1 {
		return
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	snap := b.store.Snapshot()
	challenge, ok := snap.Challenge(models.ChallengeID(id))
	if !ok {
		b.sendText(query.Message.Chat.ID, "❌ Unknown challenge.")
		state.Step = stepDone
		return
	}

	selected := make(map[models.ReaderID]bool)
	for _, r := range snap.Participants(challenge.ID) {
		selected[r.ID] = true
	}

	state.Data["challenge"] = challenge.ID
	state.Data["selected"] = selected
	state.Step = 2

	text := fmt.Sprintf("%s %s\n%s\n\n👪 Who takes part? Tap to toggle, then save.", challenge.Badge, challenge.Title, challenge.Description)
	b.sendWithKeyboard(query.Message.Chat.ID, text, joinKeyboard(snap, selected))
}

// handleToggleCallback flips one reader in the participant selection
func (b *Bot) handleToggleCallback(query *tgbotapi.CallbackQuery, state *ConversationState, value string) {
	if state.Command != convJoin || state.Step != 2 {
		return
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	snap := b.store.Snapshot()
	if _, ok := snap.Reader(models.ReaderID(id)); !ok {
		return
	}

	selected, _ := state.Data["selected"].(map[models.ReaderID]bool)
	if selected == nil {
		selected = make(map[models.ReaderID]bool)
		state.Data["selected"] = selected
	}
	selected[models.ReaderID(id)] = !selected[models.ReaderID(id)]

	edit := tgbotapi.NewEditMessageReplyMarkup(query.Message.Chat.ID, query.Message.MessageID, joinKeyboard(snap, selected))
	b.sendMessage(edit)
}

// handleJoinSaveCallback applies the participant selection
func (b *Bot) handleJoinSaveCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != convJoin || state.Step != 2 {
		return
	}

	challengeID, _ := state.Data["challenge"].(models.ChallengeID)
	selected, _ := state.Data["selected"].(map[models.ReaderID]bool)
	state.Step = stepDone

	snap := b.store.Snapshot()
	challenge, ok := snap.Challenge(challengeID)
	if !ok {
		b.sendText(query.Message.Chat.ID, "❌ Unknown challenge.")
		return
	}

	var ids []models.ReaderID
	for _, r := range snap.Readers {
		if selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}

	if b.store.UpdateChallengeParticipants(challengeID, ids) {
		a := models.Activity{
			Kind:           models.ActivityParticipantsUpdated,
			ChallengeID:    int64(challenge.ID),
			ChallengeTitle: challenge.Title,
			Amount:         int64(len(ids)),
		}
		if reader, ok := snap.CurrentReader(); ok {
			a.ReaderID = int64(reader.ID)
			a.ReaderName = reader.Name
		}
		b.record(ctx, a)
	}

	participants := b.store.Snapshot().Participants(challengeID)
	if len(participants) == 0 {
		b.sendText(query.Message.Chat.ID, fmt.Sprintf("Nobody takes part in %s now.", challenge.Title))
		return
	}
	b.sendText(query.Message.Chat.ID, fmt.Sprintf("%s %s participants: %s", challenge.Badge, challenge.Title, readerNames(participants)))
}

func joinKeyboard(snap state.Snapshot, selected map[models.ReaderID]bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range snap.Readers {
		mark := "⬜"
		if selected[r.ID] {
			mark = "✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s", mark, readerLabel(r)), fmt.Sprintf("toggle:%d", r.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💾 Save", "join_save"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// handleProgressChallengeCallback asks for the amount to add
func (b *Bot) handleProgressChallengeCallback(query *tgbotapi.CallbackQuery, state *ConversationState, value string) {
	if state.Command != convProgress || state.Step != 1 {
		return
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	challenge, ok := b.store.Snapshot().Challenge(models.ChallengeID(id))
	if !ok {
		b.sendText(query.Message.Chat.ID, "❌ Unknown challenge.")
		state.Step = stepDone
		return
	}

	state.Data["challenge"] = challenge.ID
	state.Step = 2

	b.sendText(query.Message.Chat.ID, fmt.Sprintf("How many %s to add to %s?", challenge.Unit, challenge.Title))
}

// handleStartBookCallback finishes the start book conversation
func (b *Bot) handleStartBookCallback(ctx context.Context, query *tgbotapi.CallbackQuery, conv *ConversationState, value string) {
	if conv.Command != convStartBook || conv.Step != 3 {
		return
	}

	challengeID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	title, _ := conv.Data["title"].(string)
	author, _ := conv.Data["author"].(string)
	conv.Step = stepDone

	id := b.store.StartReading(state.BookDetails{Title: title, Author: author}, models.ChallengeID(challengeID))
	if id == 0 {
		b.sendText(query.Message.Chat.ID, noCurrentReader)
		return
	}

	snap := b.store.Snapshot()
	book, _ := snap.Book(id)
	reader, _ := snap.CurrentReader()

	a := activity(models.ActivityBookStarted, reader)
	a.BookTitle = book.Title
	text := fmt.Sprintf("📖 %s started '%s'. Enjoy!", reader.Name, book.Title)
	if c, ok := snap.Challenge(book.ChallengeID); ok {
		a.ChallengeID = int64(c.ID)
		a.ChallengeTitle = c.Title
		text += fmt.Sprintf("\nIt counts towards %s %s.", c.Badge, c.Title)
	}
	b.record(ctx, a)

	b.sendText(query.Message.Chat.ID, text)
}

// handleLogBookCallback asks for the minutes read
func (b *Bot) handleLogBookCallback(query *tgbotapi.CallbackQuery, state *ConversationState, value string) {
	if state.Command != convLog || state.Step != 1 {
		return
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	book, ok := b.currentReaderBook(query.Message.Chat.ID, models.BookID(id))
	if !ok {
		state.Step = stepDone
		return
	}

	state.Data["book"] = book.ID
	state.Step = 2

	b.sendText(query.Message.Chat.ID, fmt.Sprintf("How many minutes did you read '%s'?", book.Title))
}

// handleFinishCallback asks for confirmation
func (b *Bot) handleFinishCallback(query *tgbotapi.CallbackQuery, value string) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	book, ok := b.currentReaderBook(query.Message.Chat.ID, models.BookID(id))
	if !ok {
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, finished!", fmt.Sprintf("finish_yes:%d", book.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Not yet", "finish_no"),
		),
	)
	b.sendWithKeyboard(query.Message.Chat.ID, fmt.Sprintf("Did you finish '%s'?", book.Title), keyboard)
}

// handleFinishConfirmCallback marks the book finished
func (b *Bot) handleFinishConfirmCallback(ctx context.Context, query *tgbotapi.CallbackQuery, value string) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}

	book, ok := b.currentReaderBook(query.Message.Chat.ID, models.BookID(id))
	if !ok {
		return
	}

	if !b.store.FinishBook(book.ID) {
		b.sendText(query.Message.Chat.ID, fmt.Sprintf("'%s' is already finished.", book.Title))
		return
	}

	snap := b.store.Snapshot()
	reader, _ := snap.CurrentReader()

	a := activity(models.ActivityBookFinished, reader)
	a.BookTitle = book.Title
	a.Amount = 1
	text := fmt.Sprintf("🎉 Congratulations! '%s' is finished.", book.Title)
	if c, ok := snap.Challenge(book.ChallengeID); ok {
		a.ChallengeID = int64(c.ID)
		a.ChallengeTitle = c.Title
		if c.Unit == models.UnitBooks {
			text += "\n" + b.personalProgress(reader.ID, c)
		}
	}
	b.record(ctx, a)

	b.sendText(query.Message.Chat.ID, text)
}

// currentReaderBook finds a book of the current reader. A book of another
// reader comes from a button sent before the reader was switched.
func (b *Bot) currentReaderBook(chatID int64, id models.BookID) (models.Book, bool) {
	snap := b.store.Snapshot()
	book, ok := snap.Book(id)
	if !ok {
		b.sendText(chatID, "❌ Unknown book.")
		return models.Book{}, false
	}
	if book.ReaderID != snap.CurrentReaderID {
		b.sendText(chatID, expiredButtonText)
		return models.Book{}, false
	}
	return book, true
}

// handleStatsPeriodCallback shows reading totals for the selected period
func (b *Bot) handleStatsPeriodCallback(ctx context.Context, query *tgbotapi.CallbackQuery, value string) {
	days, err := strconv.Atoi(value)
	if err != nil || days <= 0 {
		return
	}

	end := b.now()
	start := end.AddDate(0, 0, -days)

	stats, err := b.db.ReadingStats(ctx, start, end)
	if err != nil {
		b.logger.Error("Failed to load reading stats",
			zap.Error(err),
			zap.Int64("user_id", query.From.ID),
			zap.Int("days", days),
		)
		b.sendText(query.Message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	b.sendText(query.Message.Chat.ID, formatStats(stats, start, end))
}

func formatStats(stats []models.ReaderStat, start, end time.Time) string {
	header := fmt.Sprintf("📊 Reading statistics\n%s to %s\n\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if len(stats) == 0 {
		return header + "No reading recorded in this period."
	}

	text := header
	var minutes int64
	var finished uint64
	for i, s := range stats {
		text += fmt.Sprintf("%d. %s: %d min, %d book(s) finished\n", i+1, s.ReaderName, s.Minutes, s.BooksFinished)
		minutes += s.Minutes
		finished += s.BooksFinished
	}
	return text + fmt.Sprintf("\nFamily total: %d min, %d book(s) finished", minutes, finished)
}
