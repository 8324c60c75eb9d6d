package state

import (
	"testing"

	"familyreads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// familySnapshot builds a small family: Dad, Maya and Leo
func familySnapshot() Snapshot {
	return Snapshot{
		Readers: []models.Reader{
			{ID: 1, Name: "Dad", Avatar: "👨", AgeRange: models.AgeAdults,
				JoinedChallengeIDs: []models.ChallengeID{1, 15},
				Progress:           map[models.ChallengeID]int{1: 120, 15: 1}},
			{ID: 2, Name: "Maya", Avatar: "👧", AgeRange: models.AgeKids,
				JoinedChallengeIDs: []models.ChallengeID{4, 7},
				Progress:           map[models.ChallengeID]int{4: 3, 7: 1}},
			{ID: 3, Name: "Leo", Avatar: "👦", AgeRange: models.AgeKids,
				JoinedChallengeIDs: []models.ChallengeID{5},
				Progress:           map[models.ChallengeID]int{5: 4}},
		},
		Books: []models.Book{
			{ID: 1, ReaderID: 1, Title: "Journey to the West", Status: models.StatusReading, ChallengeID: 1, ProgressMinutes: 120},
			{ID: 2, ReaderID: 2, Title: "The Peasant Prince", Status: models.StatusReading, ChallengeID: 4, ProgressMinutes: 30},
			{ID: 3, ReaderID: 2, Title: "I am a Dragon", Status: models.StatusFinished, ChallengeID: 4, ProgressMinutes: 60},
			{ID: 4, ReaderID: 3, Title: "Bilingual Bookworm Stories", Status: models.StatusReading, ChallengeID: 5},
		},
		Challenges: []models.Challenge{
			{ID: 1, Title: "Summer Reading Quest", Goal: 600, Unit: models.UnitMinutes, Category: models.CategoryGeneral},
			{ID: 4, Title: "The Great Zodiac Race", Goal: 12, Unit: models.UnitBooks, Category: models.CategoryChildren},
			{ID: 5, Title: "Bilingual Bookworm", Goal: 10, Unit: models.UnitBooks, Category: models.CategoryChildren},
			{ID: 7, Title: "My First Legend", Goal: 1, Unit: models.UnitBooks, Category: models.CategoryChildren},
			{ID: 15, Title: "The Four Classics Challenge", Goal: 4, Unit: models.UnitBooks, Category: models.CategoryAdults, BookOfTheMonth: true},
		},
		CurrentReaderID: 1,
	}
}

func mustCurrent(t *testing.T, s Snapshot) models.Reader {
	t.Helper()
	r, ok := s.CurrentReader()
	require.True(t, ok, "expected a current reader")
	return r
}

func TestSnapshot_AddReader(t *testing.T) {
	before := familySnapshot()

	after, id := before.AddReader("Grandma", "👵", models.AgeAdults)

	assert.Equal(t, models.ReaderID(4), id)
	require.Len(t, after.Readers, 4)
	assert.Len(t, before.Readers, 3, "original snapshot must not change")

	added, ok := after.Reader(id)
	require.True(t, ok)
	assert.Equal(t, "Grandma", added.Name)
	assert.Equal(t, models.AgeAdults, added.AgeRange)
	assert.Empty(t, added.JoinedChallengeIDs)
	assert.Empty(t, added.Progress)
}

func TestSnapshot_AddReader_Empty(t *testing.T) {
	s, id := Snapshot{}.AddReader("Solo", "😀", models.AgeTeens)
	assert.Equal(t, models.ReaderID(1), id)
	assert.Len(t, s.Readers, 1)
}

func TestSnapshot_SwitchReader(t *testing.T) {
	s := familySnapshot()

	s = s.SwitchReader(2)
	assert.Equal(t, "Maya", mustCurrent(t, s).Name)

	s = s.SwitchReader(99)
	assert.Equal(t, "Maya", mustCurrent(t, s).Name, "unknown reader keeps the current one")
}

func TestSnapshot_UpdateChallengeParticipants(t *testing.T) {
	s := familySnapshot()
	s = s.UpdateChallengeParticipants(4, []models.ReaderID{2})
	s = s.SwitchReader(2)

	// Leo takes over challenge 4 from Maya
	after := s.UpdateChallengeParticipants(4, []models.ReaderID{3})

	maya, _ := after.Reader(2)
	leo, _ := after.Reader(3)
	assert.False(t, maya.HasJoined(4))
	assert.True(t, leo.HasJoined(4))
	assert.False(t, mustCurrent(t, after).HasJoined(4), "current reader view must follow the reader list")

	before, _ := s.Reader(2)
	assert.True(t, before.HasJoined(4), "original snapshot must not change")
}

func TestSnapshot_UpdateChallengeParticipants_Idempotent(t *testing.T) {
	target := []models.ReaderID{1, 3}

	once := familySnapshot().UpdateChallengeParticipants(5, target)
	twice := once.UpdateChallengeParticipants(5, target)

	assert.Equal(t, once.Readers, twice.Readers)
	assert.True(t, same(once, twice), "second application must be a no-op")
}

func TestSnapshot_UpdateChallengeProgress(t *testing.T) {
	testCases := []struct {
		name     string
		current  models.ReaderID
		id       models.ChallengeID
		delta    int
		expected int
	}{
		{name: "adds to joined challenge", current: 1, id: 1, delta: 50, expected: 170},
		{name: "clamps to goal", current: 1, id: 1, delta: 10000, expected: 600},
		{name: "clamps at zero", current: 1, id: 1, delta: -500, expected: 0},
		{name: "not joined is a no-op", current: 1, id: 4, delta: 3, expected: 0},
		{name: "unknown challenge is a no-op", current: 1, id: 404, delta: 3, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := familySnapshot().SwitchReader(tc.current)
			s = s.UpdateChallengeProgress(tc.id, tc.delta)
			assert.Equal(t, tc.expected, mustCurrent(t, s).ProgressFor(tc.id))
		})
	}
}

func TestSnapshot_UpdateChallengeProgress_OnlyCurrentReader(t *testing.T) {
	s := familySnapshot()
	s = s.UpdateChallengeParticipants(1, []models.ReaderID{1, 2})

	s = s.UpdateChallengeProgress(1, 30)

	maya, _ := s.Reader(2)
	assert.Equal(t, 0, maya.ProgressFor(1))
	assert.Equal(t, 150, mustCurrent(t, s).ProgressFor(1))
}

func TestSnapshot_ProgressStaysWithinGoal(t *testing.T) {
	s := familySnapshot()
	deltas := []int{300, 400, -2000, 599, 2, -1, 7}

	for _, d := range deltas {
		for _, r := range s.Readers {
			s = s.SwitchReader(r.ID)
			for _, c := range s.Challenges {
				s = s.UpdateChallengeProgress(c.ID, d)
			}
		}

		for _, c := range s.Challenges {
			for _, r := range s.Participants(c.ID) {
				p := r.ProgressFor(c.ID)
				assert.GreaterOrEqual(t, p, 0)
				assert.LessOrEqual(t, p, c.Goal)
			}
		}
	}
}

func TestSnapshot_StartReading_AutoJoins(t *testing.T) {
	s := familySnapshot().SwitchReader(2)

	s, id := s.StartReading(BookDetails{Title: "X"}, 5)

	maya := mustCurrent(t, s)
	assert.True(t, maya.HasJoined(5))

	book, ok := s.Book(id)
	require.True(t, ok)
	assert.Equal(t, models.ReaderID(2), book.ReaderID)
	assert.Equal(t, "X", book.Title)
	assert.Equal(t, models.StatusReading, book.Status)
	assert.Equal(t, 0, book.ProgressMinutes)
	assert.Equal(t, models.ChallengeID(5), book.ChallengeID)
}

func TestSnapshot_StartReading_NoChallenge(t *testing.T) {
	before := familySnapshot()

	after, id := before.StartReading(BookDetails{Title: "Free reading", Author: "Anyone"}, 0)

	assert.Equal(t, models.BookID(5), id)
	assert.Equal(t, before.Readers, after.Readers)
	book, _ := after.Book(id)
	assert.False(t, book.Linked())
	assert.Len(t, before.Books, 4)
}

func TestSnapshot_StartReading_AlreadyJoined(t *testing.T) {
	s, _ := familySnapshot().StartReading(BookDetails{Title: "Dream of the Red Chamber"}, 15)
	dad := mustCurrent(t, s)
	assert.Equal(t, []models.ChallengeID{1, 15}, dad.JoinedChallengeIDs)
}

func TestSnapshot_LogProgress_MinutesChallenge(t *testing.T) {
	s := familySnapshot()

	s = s.LogProgress(1, 50)

	dad := mustCurrent(t, s)
	assert.Equal(t, 170, dad.ProgressFor(1))
	book, _ := s.Book(1)
	assert.Equal(t, 170, book.ProgressMinutes)

	summary, ok := s.ChallengeSummary(1)
	require.True(t, ok)
	assert.Equal(t, 28, summary.Percentage)
}

func TestSnapshot_LogProgress_BooksChallengeOnlyCountsMinutes(t *testing.T) {
	s := familySnapshot().SwitchReader(2)

	s = s.LogProgress(2, 25)

	book, _ := s.Book(2)
	assert.Equal(t, 55, book.ProgressMinutes)
	assert.Equal(t, 3, mustCurrent(t, s).ProgressFor(4))
}

func TestSnapshot_LogProgress_Additive(t *testing.T) {
	base := familySnapshot()

	split := base.LogProgress(1, 20).LogProgress(1, 35)
	whole := base.LogProgress(1, 55)

	a, _ := split.Book(1)
	b, _ := whole.Book(1)
	assert.Equal(t, b.ProgressMinutes, a.ProgressMinutes)
	assert.Equal(t, mustCurrent(t, whole).ProgressFor(1), mustCurrent(t, split).ProgressFor(1))
}

func TestSnapshot_LogProgress_UnknownBook(t *testing.T) {
	before := familySnapshot()
	after := before.LogProgress(99, 10)
	assert.True(t, same(before, after))
}

func TestSnapshot_FinishBook(t *testing.T) {
	s := familySnapshot().SwitchReader(2)

	s = s.FinishBook(2)

	book, _ := s.Book(2)
	assert.Equal(t, models.StatusFinished, book.Status)
	assert.Equal(t, 4, mustCurrent(t, s).ProgressFor(4))
}

func TestSnapshot_FinishBook_Idempotent(t *testing.T) {
	s := familySnapshot().SwitchReader(2)

	once := s.FinishBook(2)
	twice := once.FinishBook(2)

	assert.Equal(t, 4, mustCurrent(t, twice).ProgressFor(4))
	assert.True(t, same(once, twice))
}

func TestSnapshot_FinishBook_MinutesChallengeUnchanged(t *testing.T) {
	s := familySnapshot().FinishBook(1)

	book, _ := s.Book(1)
	assert.Equal(t, models.StatusFinished, book.Status)
	assert.Equal(t, 120, mustCurrent(t, s).ProgressFor(1))
}

func TestSnapshot_CollectStamp(t *testing.T) {
	s := familySnapshot()

	s = s.CollectStamp("GR_OATLEY_2025")
	s = s.CollectStamp("GR_OATLEY_2025")
	s = s.CollectStamp("")

	assert.Equal(t, []string{"GR_OATLEY_2025"}, s.Stamps)
	assert.True(t, s.HasStamp("GR_OATLEY_2025"))
}

func TestSnapshot_DualBookkeepingMayDiverge(t *testing.T) {
	// Progress logged straight to the goal earns the badge without any
	// finished book behind it.
	s := familySnapshot().SwitchReader(2)
	require.Equal(t, 3, mustCurrent(t, s).ProgressFor(4))
	require.Len(t, s.Badges(), 1)

	s = s.UpdateChallengeProgress(4, 100)

	assert.Equal(t, 12, mustCurrent(t, s).ProgressFor(4))
	summary, _ := s.ChallengeSummary(4)
	assert.Equal(t, 12, summary.TotalProgress)
	assert.Equal(t, 1, summary.BooksFinished)

	var earned []models.ChallengeID
	for _, b := range s.Badges() {
		earned = append(earned, b.Challenge.ID)
	}
	assert.Contains(t, earned, models.ChallengeID(4))
}

func TestSnapshot_StartReading_UnknownChallenge(t *testing.T) {
	s, id := familySnapshot().StartReading(BookDetails{Title: "Lost"}, 404)

	book, ok := s.Book(id)
	require.True(t, ok)
	assert.False(t, book.Linked())
	assert.False(t, mustCurrent(t, s).HasJoined(404))
}
