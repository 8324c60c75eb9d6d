package state

import (
	"sync"

	"familyreads/internal/models"
)

// Store owns the live snapshot. Mutations are applied one at a time, each
// replacing the snapshot wholesale, so readers of Snapshot never observe a
// partially applied change.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewStore creates a store starting from the given snapshot
func NewStore(initial Snapshot) *Store {
	return &Store{snap: initial}
}

// Snapshot returns the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// apply runs one transition and reports whether it changed anything
func (s *Store) apply(fn func(Snapshot) Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.snap)
	changed := !same(s.snap, next)
	s.snap = next
	return changed
}

// AddReader adds a family member and returns the new id
func (s *Store) AddReader(name, avatar string, ageRange models.AgeRange) models.ReaderID {
	var id models.ReaderID
	s.apply(func(snap Snapshot) Snapshot {
		snap, id = snap.AddReader(name, avatar, ageRange)
		return snap
	})
	return id
}

// SwitchReader changes the current reader
func (s *Store) SwitchReader(id models.ReaderID) bool {
	return s.apply(func(snap Snapshot) Snapshot {
		return snap.SwitchReader(id)
	})
}

// UpdateChallengeParticipants sets who takes part in a challenge
func (s *Store) UpdateChallengeParticipants(challengeID models.ChallengeID, readerIDs []models.ReaderID) bool {
	return s.apply(func(snap Snapshot) Snapshot {
		return snap.UpdateChallengeParticipants(challengeID, readerIDs)
	})
}

// UpdateChallengeProgress logs progress for the current reader
func (s *Store) UpdateChallengeProgress(challengeID models.ChallengeID, delta int) bool {
	return s.apply(func(snap Snapshot) Snapshot {
		return snap.UpdateChallengeProgress(challengeID, delta)
	})
}

// StartReading creates a book for the current reader. The returned id is
// zero when there is no current reader.
func (s *Store) StartReading(details BookDetails, challengeID models.ChallengeID) models.BookID {
	var id models.BookID
	s.apply(func(snap Snapshot) Snapshot {
		snap, id = snap.StartReading(details, challengeID)
		return snap
	})
	return id
}

// LogProgress adds minutes to a book
func (s *Store) LogProgress(bookID models.BookID, minutes int) bool {
	return s.apply(func(snap Snapshot) Snapshot {
		return snap.LogProgress(bookID, minutes)
	})
}

// FinishBook marks a book finished
func (s *Store) FinishBook(bookID models.BookID) bool {
	return s.apply(func(snap Snapshot) Snapshot {
		return snap.FinishBook(bookID)
	})
}

// CollectStamp records a location code
func (s *Store) CollectStamp(code string) bool {
	return s.apply(func(snap Snapshot) Snapshot {
		return snap.CollectStamp(code)
	})
}

// same reports whether b is a, unchanged. Transitions copy every collection
// they touch, so comparing backing arrays is enough.
func same(a, b Snapshot) bool {
	return a.CurrentReaderID == b.CurrentReaderID &&
		sameSlice(a.Readers, b.Readers) &&
		sameSlice(a.Books, b.Books) &&
		sameSlice(a.Challenges, b.Challenges) &&
		sameSlice(a.Stamps, b.Stamps)
}

func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
