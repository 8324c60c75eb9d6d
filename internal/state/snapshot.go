// Package state holds the family reading state and the transitions over it.
//
// A Snapshot is treated as immutable. Every transition returns a new
// Snapshot that shares untouched collections with the old one and carries
// fresh copies of whatever it changed. Transitions are total: unknown ids and
// already-applied states produce an unchanged snapshot.
package state

import (
	"slices"

	"familyreads/internal/models"
	"familyreads/internal/progress"
)

// Snapshot is one consistent view of readers, books, challenges and stamps
type Snapshot struct {
	Readers         []models.Reader
	Books           []models.Book
	Challenges      []models.Challenge
	CurrentReaderID models.ReaderID
	Stamps          []string
}

// BookDetails is what a reader supplies when starting a book
type BookDetails struct {
	Title  string
	Author string
}

// CurrentReader resolves the current reader from the reader list
func (s Snapshot) CurrentReader() (models.Reader, bool) {
	return s.Reader(s.CurrentReaderID)
}

// AddReader appends a reader with no joined challenges and returns its id
func (s Snapshot) AddReader(name, avatar string, ageRange models.AgeRange) (Snapshot, models.ReaderID) {
	var id models.ReaderID
	for _, r := range s.Readers {
		id = max(id, r.ID)
	}
	id++

	readers := make([]models.Reader, len(s.Readers), len(s.Readers)+1)
	copy(readers, s.Readers)
	s.Readers = append(readers, models.Reader{
		ID:                 id,
		Name:               name,
		Avatar:             avatar,
		AgeRange:           ageRange,
		JoinedChallengeIDs: []models.ChallengeID{},
		Progress:           map[models.ChallengeID]int{},
	})
	return s, id
}

// SwitchReader makes another reader current
func (s Snapshot) SwitchReader(id models.ReaderID) Snapshot {
	if _, ok := s.Reader(id); !ok {
		return s
	}
	s.CurrentReaderID = id
	return s
}

// UpdateChallengeParticipants makes the given readers exactly the set of
// readers joined to the challenge. Progress already stored is kept.
func (s Snapshot) UpdateChallengeParticipants(challengeID models.ChallengeID, readerIDs []models.ReaderID) Snapshot {
	return s.mapReaders(func(r models.Reader) (models.Reader, bool) {
		joined := r.HasJoined(challengeID)
		wanted := slices.Contains(readerIDs, r.ID)

		switch {
		case wanted && !joined:
			r = r.Clone()
			r.JoinedChallengeIDs = append(r.JoinedChallengeIDs, challengeID)
			return r, true
		case !wanted && joined:
			r = r.Clone()
			r.JoinedChallengeIDs = slices.DeleteFunc(r.JoinedChallengeIDs, func(id models.ChallengeID) bool {
				return id == challengeID
			})
			return r, true
		}
		return r, false
	})
}

// UpdateChallengeProgress adds delta to the current reader's progress on a
// joined challenge, keeping the result within [0, goal]
func (s Snapshot) UpdateChallengeProgress(challengeID models.ChallengeID, delta int) Snapshot {
	c, ok := s.Challenge(challengeID)
	if !ok {
		return s
	}

	return s.mapReaders(func(r models.Reader) (models.Reader, bool) {
		if r.ID != s.CurrentReaderID || !r.HasJoined(challengeID) {
			return r, false
		}
		next := progress.Clamp(r.ProgressFor(challengeID)+delta, c.Goal)
		if next == r.ProgressFor(challengeID) {
			return r, false
		}
		r = r.Clone()
		r.Progress[challengeID] = next
		return r, true
	})
}

// StartReading creates a book for the current reader. A known challenge id
// links the book and joins the reader to that challenge if needed; an
// unknown one leaves the book unlinked.
func (s Snapshot) StartReading(details BookDetails, challengeID models.ChallengeID) (Snapshot, models.BookID) {
	current, ok := s.CurrentReader()
	if !ok {
		return s, 0
	}
	if _, ok := s.Challenge(challengeID); !ok {
		challengeID = 0
	}

	var id models.BookID
	for _, b := range s.Books {
		id = max(id, b.ID)
	}
	id++

	books := make([]models.Book, len(s.Books), len(s.Books)+1)
	copy(books, s.Books)
	s.Books = append(books, models.Book{
		ID:          id,
		ReaderID:    current.ID,
		Title:       details.Title,
		Author:      details.Author,
		Status:      models.StatusReading,
		ChallengeID: challengeID,
	})

	if challengeID != 0 && !current.HasJoined(challengeID) {
		s = s.mapReaders(func(r models.Reader) (models.Reader, bool) {
			if r.ID != current.ID {
				return r, false
			}
			r = r.Clone()
			r.JoinedChallengeIDs = append(r.JoinedChallengeIDs, challengeID)
			return r, true
		})
	}
	return s, id
}

// LogProgress adds minutes to a book. When the linked challenge is measured
// in minutes the same amount goes to the current reader's challenge progress.
func (s Snapshot) LogProgress(bookID models.BookID, minutes int) Snapshot {
	var logged models.Book
	s, found := s.mapBook(bookID, func(b models.Book) (models.Book, bool) {
		b.ProgressMinutes += minutes
		logged = b
		return b, minutes != 0
	})
	if !found || !logged.Linked() {
		return s
	}

	if c, ok := s.Challenge(logged.ChallengeID); ok && c.Unit == models.UnitMinutes {
		s = s.UpdateChallengeProgress(c.ID, minutes)
	}
	return s
}

// FinishBook marks a book finished. Only the reading -> finished edge
// counts: finishing an already finished book changes nothing. A book linked
// to a challenge measured in books adds exactly one to challenge progress.
func (s Snapshot) FinishBook(bookID models.BookID) Snapshot {
	var finished models.Book
	s, changed := s.mapBook(bookID, func(b models.Book) (models.Book, bool) {
		if b.Status == models.StatusFinished {
			return b, false
		}
		b.Status = models.StatusFinished
		finished = b
		return b, true
	})
	if !changed || !finished.Linked() {
		return s
	}

	if c, ok := s.Challenge(finished.ChallengeID); ok && c.Unit == models.UnitBooks {
		s = s.UpdateChallengeProgress(c.ID, 1)
	}
	return s
}

// CollectStamp records a location code once
func (s Snapshot) CollectStamp(code string) Snapshot {
	if code == "" || s.HasStamp(code) {
		return s
	}
	stamps := make([]string, len(s.Stamps), len(s.Stamps)+1)
	copy(stamps, s.Stamps)
	s.Stamps = append(stamps, code)
	return s
}

// mapReaders rebuilds the reader list only when fn reports a change
func (s Snapshot) mapReaders(fn func(models.Reader) (models.Reader, bool)) Snapshot {
	var readers []models.Reader
	for i, r := range s.Readers {
		next, changed := fn(r)
		if !changed {
			continue
		}
		if readers == nil {
			readers = slices.Clone(s.Readers)
		}
		readers[i] = next
	}
	if readers != nil {
		s.Readers = readers
	}
	return s
}

// mapBook replaces the book with the given id. The bool reports whether a
// book was found and fn changed it.
func (s Snapshot) mapBook(id models.BookID, fn func(models.Book) (models.Book, bool)) (Snapshot, bool) {
	i := slices.IndexFunc(s.Books, func(b models.Book) bool { return b.ID == id })
	if i < 0 {
		return s, false
	}
	next, changed := fn(s.Books[i])
	if !changed {
		return s, false
	}
	books := slices.Clone(s.Books)
	books[i] = next
	s.Books = books
	return s, true
}
