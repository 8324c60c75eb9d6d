package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"familyreads/internal/models"
	"familyreads/internal/progress"
	"familyreads/internal/state"
)

const noCurrentReader = "Nobody is reading yet. Use /add_reader to add a family member."

var categoryTitles = []struct {
	category models.Category
	title    string
}{
	{models.CategoryGeneral, "🌟 Family challenges"},
	{models.CategoryChildren, "🧒 For children"},
	{models.CategoryTeens, "🧑 For teens"},
	{models.CategoryAdults, "🧓 For adults"},
}

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to Family Reads! 📚

Readers:
/readers - Show the family and the current reader
/switch - Change the current reader
/next - Pass the book to whoever is next
/add_reader - Add a family member

Challenges:
/challenges - Family progress in every challenge
/my_challenges - Challenges of the current reader
/join - Choose who takes part in a challenge
/progress - Add progress to a joined challenge
/badges - Badges the family has earned

Books:
/start_book - Start reading a new book
/books - Books of the current reader
/log - Log reading minutes
/finish - Mark a book as finished

Library:
/stamp - Collect an explorer stamp
/passport - Show collected stamps
/events - Upcoming library events
/clubs - Online book clubs
/recommend - Book suggestions

Journal:
/last - Last 10 activities
/stats - Reading statistics`

	b.sendText(message.Chat.ID, text)
}

// handleReaders lists the family members
func (b *Bot) handleReaders(message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	if len(snap.Readers) == 0 {
		b.sendText(message.Chat.ID, noCurrentReader)
		return
	}

	var text strings.Builder
	text.WriteString("👪 Family readers:\n\n")
	for _, r := range snap.Readers {
		marker := "  "
		if r.ID == snap.CurrentReaderID {
			marker = "👉"
		}
		fmt.Fprintf(&text, "%s %s (%s), %d challenge(s)\n", marker, readerLabel(r), r.AgeRange, len(r.JoinedChallengeIDs))
	}
	text.WriteString("\nUse /switch to change the current reader.")

	b.sendText(message.Chat.ID, text.String())
}

// handleSwitch offers the readers to switch to
func (b *Bot) handleSwitch(message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	if len(snap.Readers) == 0 {
		b.sendText(message.Chat.ID, noCurrentReader)
		return
	}

	var buttons []tgbotapi.InlineKeyboardButton
	for _, r := range snap.Readers {
		label := readerLabel(r)
		if r.ID == snap.CurrentReaderID {
			label = "✅ " + label
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("reader:%d", r.ID)))
	}

	b.sendWithKeyboard(message.Chat.ID, "👤 Who is reading?", tgbotapi.NewInlineKeyboardMarkup(buttonRows(buttons, 2)...))
}

// handleNext switches to the next reader in the rotation
func (b *Bot) handleNext(ctx context.Context, message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	next := NextReader(snap.Readers, snap.CurrentReaderID)
	if next == 0 {
		b.sendText(message.Chat.ID, noCurrentReader)
		return
	}

	b.switchReader(ctx, message.Chat.ID, next)
}

// switchReader makes id the current reader and reports it
func (b *Bot) switchReader(ctx context.Context, chatID int64, id models.ReaderID) {
	reader, ok := b.store.Snapshot().Reader(id)
	if !ok {
		b.sendText(chatID, "❌ Unknown reader.")
		return
	}

	if b.store.SwitchReader(id) {
		b.record(ctx, activity(models.ActivityReaderSwitched, reader))
	}

	b.sendText(chatID, fmt.Sprintf("%s is reading now. Happy reading!", readerLabel(reader)))
}

// handleAddReaderStart initiates the add reader conversation
func (b *Bot) handleAddReaderStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, convAddReader)
	b.sendText(message.Chat.ID, "Please enter the new reader's name:")
}

// handleChallenges shows every challenge grouped by category
func (b *Bot) handleChallenges(message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	if len(snap.Challenges) == 0 {
		b.sendText(message.Chat.ID, "No challenges available.")
		return
	}

	var text strings.Builder
	text.WriteString("🏁 Reading challenges\n")
	for _, ct := range categoryTitles {
		challenges := snap.ChallengesByCategory(ct.category)
		if len(challenges) == 0 {
			continue
		}
		fmt.Fprintf(&text, "\n%s\n", ct.title)
		for _, c := range challenges {
			writeChallengeSummary(&text, snap, c)
		}
	}
	text.WriteString("\nUse /join to choose who takes part.")

	b.sendText(message.Chat.ID, text.String())
}

func writeChallengeSummary(text *strings.Builder, snap state.Snapshot, c models.Challenge) {
	summary, _ := snap.ChallengeSummary(c.ID)

	fmt.Fprintf(text, "%s %s", c.Badge, c.Title)
	if summary.BookOfTheMonth {
		text.WriteString(" ⭐ Book of the Month")
	}
	fmt.Fprintf(text, "\n   %s %d/%d %s (%d%%)\n", progressBar(summary.Percentage), summary.TotalProgress, c.Goal, c.Unit, summary.Percentage)

	if summary.Joined() {
		fmt.Fprintf(text, "   👪 %s · %d min · %d finished\n",
			readerNames(snap.Participants(c.ID)), summary.TotalMinutes, summary.BooksFinished)
	}
}

// handleMyChallenges shows the current reader's joined challenges
func (b *Bot) handleMyChallenges(message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	reader, ok := snap.CurrentReader()
	if !ok {
		b.sendText(message.Chat.ID, noCurrentReader)
		return
	}

	challenges := snap.ActiveChallenges(reader.ID)
	if len(challenges) == 0 {
		b.sendText(message.Chat.ID, fmt.Sprintf("%s has not joined any challenges yet. Use /join to take part.", reader.Name))
		return
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s's challenges:\n\n", readerLabel(reader))
	for _, c := range challenges {
		value := reader.ProgressFor(c.ID)
		pct := progress.Percentage(value, c.Goal)
		fmt.Fprintf(&text, "%s %s\n   %s %d/%d %s (%d%%)\n", c.Badge, c.Title, progressBar(pct), value, c.Goal, c.Unit, pct)
	}

	b.sendText(message.Chat.ID, text.String())
}

// handleJoinStart lets the user pick a challenge to edit participants for
func (b *Bot) handleJoinStart(message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	if len(snap.Challenges) == 0 {
		b.sendText(message.Chat.ID, "No challenges available.")
		return
	}

	b.setState(message.From.ID, convJoin)

	var buttons []tgbotapi.InlineKeyboardButton
	for _, c := range snap.Challenges {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s", c.Badge, c.Title),
			fmt.Sprintf("join:%d", c.ID),
		))
	}

	b.sendWithKeyboard(message.Chat.ID, "🏁 Select a challenge:", tgbotapi.NewInlineKeyboardMarkup(buttonRows(buttons, 1)...))
}

// handleProgressStart lets the current reader pick a joined challenge
func (b *Bot) handleProgressStart(message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	reader, ok := snap.CurrentReader()
	if !ok {
		b.sendText(message.Chat.ID, noCurrentReader)
		return
	}

	challenges := snap.ActiveChallenges(reader.ID)
	if len(challenges) == 0 {
		b.sendText(message.Chat.ID, fmt.Sprintf("%s has not joined any challenges yet. Use /join to take part.", reader.Name))
		return
	}

	b.setState(message.From.ID, convProgress)

	var buttons []tgbotapi.InlineKeyboardButton
	for _, c := range challenges {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s", c.Badge, c.Title),
			fmt.Sprintf("progress:%d", c.ID),
		))
	}

	b.sendWithKeyboard(message.Chat.ID, "📈 Which challenge?", tgbotapi.NewInlineKeyboardMarkup(buttonRows(buttons, 1)...))
}

// handleStartBookStart initiates the start book conversation
func (b *Bot) handleStartBookStart(message *tgbotapi.Message) {
	if _, ok := b.store.Snapshot().CurrentReader(); !ok {
		b.sendText(message.Chat.ID, noCurrentReader)
		return
	}

	b.setState(message.From.ID, convStartBook)
	b.sendText(message.Chat.ID, "📖 Please enter the book title:")
}

// handleBooks shows the current reader's bookshelf
func (b *Bot) handleBooks(message *tgbotapi.Message) {
	snap := b.store.Snapshot()
	reader, ok := snap.CurrentReader()
	if !ok {
		b.sendText(message.Chat.ID, noCurrentReader)
		return
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s's bookshelf\n\n📖 Currently reading:\n", readerLabel(reader))

	reading := snap.CurrentlyReading(reader.ID)
	if len(reading) == 0 {
		text.WriteString("   Nothing yet. Use /start_book to begin a new book.\n")
	}
	for _, book := range reading {
		fmt.Fprintf(&text, "   • %s", bookLabel(book))
		if book.ProgressMinutes > 0 {
			fmt.Fprintf(&text, ", %d min", book.ProgressMinutes)
		}
		if c, ok := snap.Challenge(book.ChallengeID); ok {
			fmt.Fprintf(&text, " [%s %s]", c.Badge, c.Title)
			if pct := progress.BookPercentage(book, c); pct > 0 {
				fmt.Fprintf(&text, " %d%% of goal", pct)
			}
		}
		text.WriteString("\n")
	}

	text.WriteString("\n✅ Completed:\n")
	completed := snap.CompletedBooks(reader.ID)
	if len(completed) == 0 {
		text.WriteString("   No finished books yet.\n")
	}
	for _, book := range completed {
		fmt.Fprintf(&text, "   • %s\n", bookLabel(book))
	}

	b.sendText(message.Chat.ID, text.String())
}

// handleLogStart lets the current reader pick a book to log minutes for
func (b *Bot) handleLogStart(message *tgbotapi.Message) {
	books, ok := b.readingBooks(message.Chat.ID)
	if !ok {
		return
	}

	b.setState(message.From.ID, convLog)
	b.sendWithKeyboard(message.Chat.ID, "⏱ Which book did you read?", bookKeyboard(books, "logbook"))
}

// handleFinishStart lets the current reader pick a book to finish
func (b *Bot) handleFinishStart(message *tgbotapi.Message) {
	books, ok := b.readingBooks(message.Chat.ID)
	if !ok {
		return
	}

	b.sendWithKeyboard(message.Chat.ID, "🎉 Which book did you finish?", bookKeyboard(books, "finish"))
}

// readingBooks returns the current reader's in-progress books, telling the
// user when there are none
func (b *Bot) readingBooks(chatID int64) ([]models.Book, bool) {
	snap := b.store.Snapshot()
	reader, ok := snap.CurrentReader()
	if !ok {
		b.sendText(chatID, noCurrentReader)
		return nil, false
	}

	books := snap.CurrentlyReading(reader.ID)
	if len(books) == 0 {
		b.sendText(chatID, fmt.Sprintf("%s is not reading anything. Use /start_book to begin a new book.", reader.Name))
		return nil, false
	}
	return books, true
}

func bookKeyboard(books []models.Book, prefix string) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, book := range books {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(book.Title, fmt.Sprintf("%s:%d", prefix, book.ID)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(buttonRows(buttons, 1)...)
}

func bookLabel(book models.Book) string {
	if book.Author == "" {
		return book.Title
	}
	return fmt.Sprintf("%s by %s", book.Title, book.Author)
}

// handleStamp collects the stamp given as argument, or offers the libraries
func (b *Bot) handleStamp(ctx context.Context, message *tgbotapi.Message) {
	if code := strings.TrimSpace(message.CommandArguments()); code != "" {
		b.collectStamp(ctx, message.Chat.ID, code)
		return
	}

	if len(b.seed.Libraries) == 0 {
		b.sendText(message.Chat.ID, "No libraries to visit.")
		return
	}

	var buttons []tgbotapi.InlineKeyboardButton
	for _, lib := range b.seed.Libraries {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(lib.Name, "stamp:"+lib.StampCode))
	}

	b.sendWithKeyboard(message.Chat.ID, "📍 Which library are you visiting?", tgbotapi.NewInlineKeyboardMarkup(buttonRows(buttons, 1)...))
}

// collectStamp adds a library stamp to the family passport
func (b *Bot) collectStamp(ctx context.Context, chatID int64, code string) {
	lib, ok := b.seed.Library(code)
	if !ok {
		b.logger.Warn("Unknown stamp code", zap.String("code", code))
		b.sendText(chatID, "❌ That code does not belong to any library.")
		return
	}

	if !b.store.CollectStamp(code) {
		b.sendText(chatID, fmt.Sprintf("The %s stamp is already in your passport.", lib.Name))
		return
	}

	a := models.Activity{Kind: models.ActivityStampCollected, BookTitle: lib.Name}
	if reader, ok := b.store.Snapshot().CurrentReader(); ok {
		a = activity(models.ActivityStampCollected, reader)
		a.BookTitle = lib.Name
	}
	b.record(ctx, a)

	collected := len(b.store.Snapshot().Stamps)
	b.sendText(chatID, fmt.Sprintf("🎉 Stamp collected at %s! (%d/%d)", lib.Name, collected, len(b.seed.Libraries)))
}

// handlePassport shows which library stamps were collected
func (b *Bot) handlePassport(message *tgbotapi.Message) {
	snap := b.store.Snapshot()

	var text strings.Builder
	fmt.Fprintf(&text, "🗺 Explorer passport (%d/%d)\n\n", len(snap.Stamps), len(b.seed.Libraries))
	for _, lib := range b.seed.Libraries {
		mark := "⬜"
		if snap.HasStamp(lib.StampCode) {
			mark = "✅"
		}
		fmt.Fprintf(&text, "%s %s (%s)\n", mark, lib.Name, lib.Location)
	}
	text.WriteString("\nUse /stamp when you visit a library.")

	b.sendText(message.Chat.ID, text.String())
}

// handleBadges shows completed challenges and who completed them
func (b *Bot) handleBadges(message *tgbotapi.Message) {
	badges := b.store.Snapshot().Badges()
	if len(badges) == 0 {
		b.sendText(message.Chat.ID, "No badges earned yet! Complete a challenge to earn your first badge.")
		return
	}

	var text strings.Builder
	text.WriteString("🏅 Family badges:\n\n")
	for _, badge := range badges {
		fmt.Fprintf(&text, "%s %s: %s\n", badge.Challenge.Badge, badge.Challenge.Title, readerNames(badge.Earners))
	}

	b.sendText(message.Chat.ID, text.String())
}

// handleEvents lists upcoming library events
func (b *Bot) handleEvents(message *tgbotapi.Message) {
	if len(b.seed.Events) == 0 {
		b.sendText(message.Chat.ID, "No upcoming events.")
		return
	}

	var text strings.Builder
	text.WriteString("📅 Upcoming events:\n\n")
	for _, e := range b.seed.Events {
		fmt.Fprintf(&text, "• %s\n   %s, %s\n", e.Title, e.Location, e.Date)
	}

	b.sendText(message.Chat.ID, text.String())
}

// handleClubs lists the online book clubs
func (b *Bot) handleClubs(message *tgbotapi.Message) {
	if len(b.seed.BookClubs) == 0 {
		b.sendText(message.Chat.ID, "No book clubs available.")
		return
	}

	var text strings.Builder
	text.WriteString("💬 Online book clubs:\n\n")
	for _, club := range b.seed.BookClubs {
		fmt.Fprintf(&text, "%s %s\n   %s\n   Now reading: %s by %s\n   Join: %s\n\n",
			club.Emoji, club.Name, club.Description, club.CurrentBook, club.Author, club.JoinLink)
	}

	b.sendText(message.Chat.ID, strings.TrimRight(text.String(), "\n"))
}

// handleRecommend suggests books for an age range. The range defaults to
// the current reader's.
func (b *Bot) handleRecommend(message *tgbotapi.Message) {
	age := models.AgeRange(strings.ToLower(strings.TrimSpace(message.CommandArguments())))
	if age == "" {
		age = models.AgeKids
		if reader, ok := b.store.Snapshot().CurrentReader(); ok {
			age = reader.AgeRange
		}
	}
	if !age.Valid() {
		b.sendText(message.Chat.ID, "Usage: /recommend [kids|teens|adults]")
		return
	}

	recs := b.seed.Recommendations[age]
	if len(recs) == 0 {
		b.sendText(message.Chat.ID, fmt.Sprintf("No recommendations for %s yet.", age))
		return
	}

	var text strings.Builder
	fmt.Fprintf(&text, "📚 Recommended for %s:\n\n", age)
	for _, r := range recs {
		fmt.Fprintf(&text, "%s %s by %s\n   %s\n\n", r.Emoji, r.Title, r.Author, r.Description)
	}

	b.sendText(message.Chat.ID, strings.TrimRight(text.String(), "\n"))
}

// handleLast shows the last 10 journal entries
func (b *Bot) handleLast(ctx context.Context, message *tgbotapi.Message) {
	activities, err := b.db.LastActivities(ctx, 10)
	if err != nil {
		b.logger.Error("Failed to load last activities", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	if len(activities) == 0 {
		b.sendText(message.Chat.ID, "No activity recorded yet.")
		return
	}

	var text strings.Builder
	text.WriteString("Last activities:\n\n")
	for i, a := range activities {
		fmt.Fprintf(&text, "%d. %s - %s\n", i+1, a.At.Format("2006-01-02 15:04"), describeActivity(a))
	}

	b.sendText(message.Chat.ID, text.String())
}

// handleStatsStart asks for the statistics period
func (b *Bot) handleStatsStart(message *tgbotapi.Message) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Last 7 days", "stats_period:7"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Last 30 days", "stats_period:30"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏮ Last 90 days", "stats_period:90"),
			tgbotapi.NewInlineKeyboardButtonData("⏮ Last 12 months", "stats_period:365"),
		),
	)

	b.sendWithKeyboard(message.Chat.ID, "📊 Select time period for statistics:", keyboard)
}
