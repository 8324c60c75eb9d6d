package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"familyreads/internal/catalog"
	"familyreads/internal/models"
	"familyreads/internal/state"
	"familyreads/internal/storage/stubs"
)

const (
	testUserID = int64(123)
	testChatID = int64(456)
)

// recordingAPI captures everything the bot sends instead of calling Telegram
type recordingAPI struct {
	sent []tgbotapi.Chattable
}

func (r *recordingAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, nil
}

func (r *recordingAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (r *recordingAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (r *recordingAPI) StopReceivingUpdates() {}

// lastText returns the text of the last plain message sent
func (r *recordingAPI) lastText() string {
	for i := len(r.sent) - 1; i >= 0; i-- {
		if msg, ok := r.sent[i].(tgbotapi.MessageConfig); ok {
			return msg.Text
		}
	}
	return ""
}

type testBot struct {
	*Bot
	api *recordingAPI
	db  *stubs.MockDB
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	seed, err := catalog.Load("")
	require.NoError(t, err)

	api := &recordingAPI{}
	db := stubs.NewMockDB()
	require.NoError(t, db.Initialize(context.Background()))

	b := newBot(api, state.NewStore(seed.Snapshot()), seed, db, []int64{testUserID}, zap.NewNop())

	// Every call moves the clock one minute forward
	clock := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	return &testBot{Bot: b, api: api, db: db}
}

func (tb *testBot) command(text string) {
	cmd, _, _ := strings.Cut(text, " ")
	tb.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: testUserID},
		Chat:     &tgbotapi.Chat{ID: testChatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}})
}

func (tb *testBot) text(text string) {
	tb.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUserID},
		Chat: &tgbotapi.Chat{ID: testChatID},
		Text: text,
	}})
}

func (tb *testBot) press(data string) {
	tb.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: testChatID}},
		Data:    data,
	}})
}

func (tb *testBot) activities(t *testing.T) []models.Activity {
	t.Helper()
	activities, err := tb.db.LastActivities(context.Background(), 100)
	require.NoError(t, err)
	return activities
}

func TestBot_UnauthorizedUser(t *testing.T) {
	tb := newTestBot(t)

	tb.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 999},
		Chat:     &tgbotapi.Chat{ID: testChatID},
		Text:     "/add_reader",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 11}},
	}})

	assert.Contains(t, tb.api.lastText(), "only answers to the family")
	assert.Nil(t, tb.getState(999))

	tb.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 999},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChatID}},
		Data:    "reader:2",
	}})
	assert.Equal(t, models.ReaderID(1), tb.store.Snapshot().CurrentReaderID)
}

func TestBot_AddReaderConversation(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/add_reader")
	state := tb.getState(testUserID)
	require.NotNil(t, state)
	assert.Equal(t, convAddReader, state.Command)
	assert.Equal(t, 1, state.Step)

	// Empty names are rejected without leaving the step
	tb.text("   ")
	assert.Equal(t, 1, state.Step)
	assert.Contains(t, tb.api.lastText(), "cannot be empty")

	tb.text("  Nana ")
	assert.Equal(t, 2, state.Step)

	tb.press("avatar:5")
	assert.Equal(t, 3, state.Step)

	tb.press("age:adults")
	assert.Nil(t, tb.getState(testUserID))

	snap := tb.store.Snapshot()
	added, ok := snap.Reader(4)
	require.True(t, ok)
	assert.Equal(t, "Nana", added.Name)
	assert.Equal(t, "👵", added.Avatar)
	assert.Equal(t, models.AgeAdults, added.AgeRange)
	assert.Empty(t, added.JoinedChallengeIDs)
	assert.Equal(t, models.ReaderID(1), snap.CurrentReaderID)

	activities := tb.activities(t)
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityReaderAdded, activities[0].Kind)
	assert.Equal(t, "Nana", activities[0].ReaderName)
}

func TestBot_AddReader_NameLengthInCharacters(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/add_reader")
	tb.text(strings.Repeat("龙", maxNameLength+1))
	assert.Contains(t, tb.api.lastText(), "too long")

	tb.text(strings.Repeat("龙", maxNameLength))
	assert.Contains(t, tb.api.lastText(), "Pick an avatar")
}

func TestBot_StartBookAndLogMinutes(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/start_book")
	tb.text("The Hobbit")
	tb.text("-")
	tb.press("startbook:1")
	assert.Nil(t, tb.getState(testUserID))

	book, ok := tb.store.Snapshot().Book(5)
	require.True(t, ok)
	assert.Equal(t, "The Hobbit", book.Title)
	assert.Empty(t, book.Author)
	assert.Equal(t, models.ReaderID(1), book.ReaderID)
	assert.Equal(t, models.ChallengeID(1), book.ChallengeID)
	assert.Equal(t, models.StatusReading, book.Status)

	tb.command("/log")
	tb.press("logbook:5")

	tb.text("zero")
	assert.Contains(t, tb.api.lastText(), "positive whole number")

	tb.text("30")
	assert.Nil(t, tb.getState(testUserID))

	snap := tb.store.Snapshot()
	book, _ = snap.Book(5)
	assert.Equal(t, 30, book.ProgressMinutes)
	dad, _ := snap.Reader(1)
	assert.Equal(t, 150, dad.ProgressFor(1))
	assert.Contains(t, tb.api.lastText(), "150/600")

	activities := tb.activities(t)
	require.Len(t, activities, 2)
	assert.Equal(t, models.ActivityProgressLogged, activities[0].Kind)
	assert.Equal(t, int64(30), activities[0].Amount)
	assert.Equal(t, "Summer Reading Quest", activities[0].ChallengeTitle)
	assert.Equal(t, models.ActivityBookStarted, activities[1].Kind)
}

func TestBot_StartBook_JoinsChallenge(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/start_book")
	tb.text("Around the World in 80 Days")
	tb.text("Jules Verne")
	tb.press("startbook:2")

	dad, _ := tb.store.Snapshot().Reader(1)
	assert.True(t, dad.HasJoined(2))
	assert.Contains(t, tb.api.lastText(), "Around the World")
}

func TestBot_FinishBook(t *testing.T) {
	tb := newTestBot(t)

	tb.press("reader:3")
	require.Equal(t, models.ReaderID(3), tb.store.Snapshot().CurrentReaderID)

	tb.press("finish:4")
	assert.Contains(t, tb.api.lastText(), "Did you finish 'Bilingual Bookworm Stories'?")

	tb.press("finish_yes:4")
	assert.Contains(t, tb.api.lastText(), "Congratulations")

	leo, _ := tb.store.Snapshot().Reader(3)
	assert.Equal(t, 5, leo.ProgressFor(5))

	// Finishing twice counts once
	tb.press("finish_yes:4")
	assert.Contains(t, tb.api.lastText(), "already finished")
	leo, _ = tb.store.Snapshot().Reader(3)
	assert.Equal(t, 5, leo.ProgressFor(5))

	finished := 0
	for _, a := range tb.activities(t) {
		if a.Kind == models.ActivityBookFinished {
			finished++
			assert.Equal(t, "Leo", a.ReaderName)
		}
	}
	assert.Equal(t, 1, finished)
}

func TestBot_FinishBook_AfterReaderSwitch(t *testing.T) {
	tb := newTestBot(t)

	tb.press("reader:2")
	tb.press("finish:2")
	assert.Contains(t, tb.api.lastText(), "Did you finish 'The Peasant Prince'?")

	// Dad takes over and joins Maya's challenge before the old button is pressed
	tb.press("reader:1")
	require.True(t, tb.store.UpdateChallengeParticipants(4, []models.ReaderID{1, 2}))

	tb.press("finish_yes:2")
	assert.Contains(t, tb.api.lastText(), "expired")

	snap := tb.store.Snapshot()
	book, _ := snap.Book(2)
	assert.Equal(t, models.StatusReading, book.Status)
	dad, _ := snap.Reader(1)
	assert.Equal(t, 0, dad.ProgressFor(4))

	tb.press("finish:2")
	assert.Contains(t, tb.api.lastText(), "expired")

	for _, a := range tb.activities(t) {
		assert.NotEqual(t, models.ActivityBookFinished, a.Kind)
	}
}

func TestBot_LogMinutes_AfterReaderSwitch(t *testing.T) {
	tb := newTestBot(t)

	tb.press("reader:2")
	tb.command("/log")
	tb.press("logbook:2")
	assert.Contains(t, tb.api.lastText(), "How many minutes")

	tb.press("reader:1")
	tb.text("15")
	assert.Contains(t, tb.api.lastText(), "expired")
	assert.Nil(t, tb.getState(testUserID))

	book, _ := tb.store.Snapshot().Book(2)
	assert.Equal(t, 30, book.ProgressMinutes)

	// Dad cannot pick Maya's book either
	tb.command("/log")
	tb.press("logbook:2")
	assert.Contains(t, tb.api.lastText(), "expired")

	for _, a := range tb.activities(t) {
		assert.NotEqual(t, models.ActivityProgressLogged, a.Kind)
	}
}

func TestBot_JoinChallenge(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/join")
	tb.press("join:2")
	tb.press("toggle:2")
	tb.press("toggle:3")
	tb.press("toggle:3")
	tb.press("toggle:3")

	edits := 0
	for _, c := range tb.api.sent {
		if _, ok := c.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			edits++
		}
	}
	assert.Equal(t, 4, edits)

	tb.press("join_save")
	assert.Nil(t, tb.getState(testUserID))

	snap := tb.store.Snapshot()
	var ids []models.ReaderID
	for _, r := range snap.Participants(2) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []models.ReaderID{2, 3}, ids)
	assert.Contains(t, tb.api.lastText(), "Maya, Leo")

	activities := tb.activities(t)
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityParticipantsUpdated, activities[0].Kind)
	assert.Equal(t, int64(2), activities[0].Amount)
}

func TestBot_JoinChallenge_RemoveEveryone(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/join")
	tb.press("join:5")
	tb.press("toggle:3")
	tb.press("join_save")

	assert.Empty(t, tb.store.Snapshot().Participants(5))
	assert.Contains(t, tb.api.lastText(), "Nobody takes part")

	leo, _ := tb.store.Snapshot().Reader(3)
	assert.Equal(t, 4, leo.ProgressFor(5))
}

func TestBot_ChallengeProgress(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/progress")
	tb.press("progress:15")
	tb.text("10")

	dad, _ := tb.store.Snapshot().Reader(1)
	assert.Equal(t, 4, dad.ProgressFor(15))
	assert.Contains(t, tb.api.lastText(), "Badge earned")

	tb.command("/progress")
	tb.press("progress:15")
	tb.text("1")
	assert.Contains(t, tb.api.lastText(), "already reached the goal")

	tb.command("/badges")
	assert.Contains(t, tb.api.lastText(), "The Four Classics Challenge: Dad")
}

func TestBot_Stamps(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/stamp GR_OATLEY_2025")
	assert.Contains(t, tb.api.lastText(), "Oatley Library")
	assert.Equal(t, []string{"GR_OATLEY_2025"}, tb.store.Snapshot().Stamps)

	tb.press("stamp:GR_OATLEY_2025")
	assert.Contains(t, tb.api.lastText(), "already in your passport")

	tb.command("/stamp BOGUS")
	assert.Contains(t, tb.api.lastText(), "does not belong to any library")
	assert.Len(t, tb.store.Snapshot().Stamps, 1)

	tb.command("/passport")
	assert.Contains(t, tb.api.lastText(), "(1/5)")
	assert.Contains(t, tb.api.lastText(), "✅ Oatley Library")

	activities := tb.activities(t)
	require.Len(t, activities, 1)
	assert.Equal(t, "Oatley Library", activities[0].BookTitle)
}

func TestBot_NextReader(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/next")
	assert.Equal(t, models.ReaderID(2), tb.store.Snapshot().CurrentReaderID)
	assert.Contains(t, tb.api.lastText(), "Maya is reading now")

	tb.command("/next")
	assert.Equal(t, models.ReaderID(3), tb.store.Snapshot().CurrentReaderID)

	tb.command("/next")
	assert.Equal(t, models.ReaderID(1), tb.store.Snapshot().CurrentReaderID)

	assert.Len(t, tb.activities(t), 3)
}

func TestBot_Listings(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/challenges")
	text := tb.api.lastText()
	assert.Contains(t, text, "Summer Reading Quest")
	assert.Contains(t, text, "120/600 mins (20%)")
	assert.Contains(t, text, "⭐ Book of the Month")

	tb.command("/books")
	text = tb.api.lastText()
	assert.Contains(t, text, "Journey to the West")
	assert.Contains(t, text, "20% of goal")
	assert.Contains(t, text, "No finished books yet")

	tb.command("/recommend teens")
	assert.Contains(t, tb.api.lastText(), "Tiger Daughter")

	tb.command("/recommend pets")
	assert.Contains(t, tb.api.lastText(), "Usage")

	tb.command("/events")
	assert.Contains(t, tb.api.lastText(), "Bilingual Story Time")

	tb.command("/clubs")
	assert.Contains(t, tb.api.lastText(), "Iron Widow")

	tb.command("/unknown")
	assert.Contains(t, tb.api.lastText(), "Unknown command")
}

func TestBot_LastAndStats(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/last")
	assert.Contains(t, tb.api.lastText(), "No activity recorded yet")

	tb.command("/log")
	tb.press("logbook:1")
	tb.text("45")
	tb.press("finish_yes:1")

	tb.command("/last")
	text := tb.api.lastText()
	assert.Contains(t, text, "1. 2025-08-30")
	assert.Contains(t, text, "Dad finished 'Journey to the West'")
	assert.Contains(t, text, "Dad read 'Journey to the West' for 45 min")

	tb.command("/stats")
	tb.press("stats_period:7")
	text = tb.api.lastText()
	assert.Contains(t, text, "Dad: 45 min, 1 book(s) finished")
	assert.Contains(t, text, "Family total: 45 min, 1 book(s) finished")
}

func TestBot_CommandInterruptsConversation(t *testing.T) {
	tb := newTestBot(t)

	tb.command("/start_book")
	require.NotNil(t, tb.getState(testUserID))

	tb.command("/books")
	assert.Nil(t, tb.getState(testUserID))

	// Text after a cancelled conversation is ignored
	sent := len(tb.api.sent)
	tb.text("The Hobbit")
	assert.Len(t, tb.api.sent, sent)
	assert.Len(t, tb.store.Snapshot().Books, 4)
}

func TestBot_ExpiredButton(t *testing.T) {
	tb := newTestBot(t)

	tb.press("avatar:1")
	assert.Contains(t, tb.api.lastText(), "expired")
}

func TestBot_Start(t *testing.T) {
	tb := newTestBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The recording API closes the update channel immediately
	assert.NoError(t, tb.Start(ctx))
}
