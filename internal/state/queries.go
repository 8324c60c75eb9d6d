package state

import (
	"slices"

	"familyreads/internal/models"
	"familyreads/internal/progress"
)

// Reader finds a reader by id
func (s Snapshot) Reader(id models.ReaderID) (models.Reader, bool) {
	i := slices.IndexFunc(s.Readers, func(r models.Reader) bool { return r.ID == id })
	if i < 0 {
		return models.Reader{}, false
	}
	return s.Readers[i], true
}

// Book finds a book by id
func (s Snapshot) Book(id models.BookID) (models.Book, bool) {
	i := slices.IndexFunc(s.Books, func(b models.Book) bool { return b.ID == id })
	if i < 0 {
		return models.Book{}, false
	}
	return s.Books[i], true
}

// Challenge finds a challenge by id
func (s Snapshot) Challenge(id models.ChallengeID) (models.Challenge, bool) {
	i := slices.IndexFunc(s.Challenges, func(c models.Challenge) bool { return c.ID == id })
	if i < 0 {
		return models.Challenge{}, false
	}
	return s.Challenges[i], true
}

// HasStamp reports whether a location code was collected
func (s Snapshot) HasStamp(code string) bool {
	return slices.Contains(s.Stamps, code)
}

// ActiveChallenges returns the challenges a reader joined, in catalog order
func (s Snapshot) ActiveChallenges(readerID models.ReaderID) []models.Challenge {
	r, ok := s.Reader(readerID)
	if !ok {
		return nil
	}
	var active []models.Challenge
	for _, c := range s.Challenges {
		if r.HasJoined(c.ID) {
			active = append(active, c)
		}
	}
	return active
}

// Participants returns the readers joined to a challenge
func (s Snapshot) Participants(challengeID models.ChallengeID) []models.Reader {
	var joined []models.Reader
	for _, r := range s.Readers {
		if r.HasJoined(challengeID) {
			joined = append(joined, r)
		}
	}
	return joined
}

// ChallengeSummary computes the family numbers for one challenge
func (s Snapshot) ChallengeSummary(challengeID models.ChallengeID) (progress.Summary, bool) {
	c, ok := s.Challenge(challengeID)
	if !ok {
		return progress.Summary{}, false
	}
	return progress.Summarize(c, s.Readers, s.Books), true
}

// Badges returns the challenges completed by at least one joined reader
func (s Snapshot) Badges() []progress.Badge {
	return progress.Badges(s.Challenges, s.Readers)
}

// ChallengesByCategory returns challenges of one category. Challenges
// without a category belong to the general one.
func (s Snapshot) ChallengesByCategory(category models.Category) []models.Challenge {
	var out []models.Challenge
	for _, c := range s.Challenges {
		cat := c.Category
		if cat == "" {
			cat = models.CategoryGeneral
		}
		if cat == category {
			out = append(out, c)
		}
	}
	return out
}

// CurrentlyReading returns a reader's books with status reading
func (s Snapshot) CurrentlyReading(readerID models.ReaderID) []models.Book {
	return s.booksWithStatus(readerID, models.StatusReading)
}

// CompletedBooks returns a reader's finished books
func (s Snapshot) CompletedBooks(readerID models.ReaderID) []models.Book {
	return s.booksWithStatus(readerID, models.StatusFinished)
}

func (s Snapshot) booksWithStatus(readerID models.ReaderID, status models.BookStatus) []models.Book {
	var out []models.Book
	for _, b := range s.Books {
		if b.ReaderID == readerID && b.Status == status {
			out = append(out, b)
		}
	}
	return out
}
