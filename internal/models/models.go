package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type (
	ReaderID    int64
	BookID      int64
	ChallengeID int64
)

// AgeRange is the age category a reader belongs to
type AgeRange string

const (
	AgeKids   AgeRange = "kids"
	AgeTeens  AgeRange = "teens"
	AgeAdults AgeRange = "adults"
)

// Valid reports whether the age range is one of the known categories
func (a AgeRange) Valid() bool {
	switch a {
	case AgeKids, AgeTeens, AgeAdults:
		return true
	}
	return false
}

// Unit is what a challenge goal is measured in
type Unit string

const (
	UnitMinutes Unit = "mins"
	UnitBooks   Unit = "books"
)

// Category groups challenges by audience
type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryChildren Category = "children"
	CategoryTeens    Category = "teens"
	CategoryAdults   Category = "adults"
)

// BookStatus is the reading state of a book
type BookStatus string

const (
	StatusReading  BookStatus = "reading"
	StatusFinished BookStatus = "finished"
	StatusToRead   BookStatus = "to-read"
)

// Reader represents a family member
type Reader struct {
	ID                 ReaderID
	Name               string
	Avatar             string
	AgeRange           AgeRange
	JoinedChallengeIDs []ChallengeID
	Progress           map[ChallengeID]int
}

// HasJoined reports whether the reader participates in the challenge
func (r Reader) HasJoined(id ChallengeID) bool {
	return slices.Contains(r.JoinedChallengeIDs, id)
}

// ProgressFor returns the stored progress for a challenge, zero if none
func (r Reader) ProgressFor(id ChallengeID) int {
	return r.Progress[id]
}

// Clone returns a deep copy so the copy can be changed without touching r
func (r Reader) Clone() Reader {
	c := r
	c.JoinedChallengeIDs = slices.Clone(r.JoinedChallengeIDs)
	c.Progress = make(map[ChallengeID]int, len(r.Progress))
	for k, v := range r.Progress {
		c.Progress[k] = v
	}
	return c
}

// Book represents a book owned by one reader
type Book struct {
	ID              BookID
	ReaderID        ReaderID
	Title           string
	Author          string
	Status          BookStatus
	ChallengeID     ChallengeID // zero when the book is not linked
	ProgressMinutes int
}

// Linked reports whether the book counts towards a challenge
func (b Book) Linked() bool {
	return b.ChallengeID != 0
}

// Challenge represents a goal-based reading activity
type Challenge struct {
	ID             ChallengeID
	Title          string
	Description    string
	Goal           int
	Unit           Unit
	Badge          string
	Category       Category
	BookOfTheMonth bool
}

// Event represents an upcoming library event
type Event struct {
	ID       int64
	Title    string
	Location string
	Date     string
}

// Library represents a branch where an explorer stamp can be collected
type Library struct {
	ID        int64
	Name      string
	Location  string
	StampCode string
}

// Recommendation represents a suggested book for an age range
type Recommendation struct {
	ID          int64
	Title       string
	Author      string
	Description string
	Emoji       string
}

// BookClub represents an online book club
type BookClub struct {
	ID          int64
	Name        string
	CurrentBook string
	Author      string
	Description string
	Emoji       string
	JoinLink    string
}

// ActivityKind names the mutation an activity records
type ActivityKind string

const (
	ActivityReaderAdded         ActivityKind = "reader_added"
	ActivityReaderSwitched      ActivityKind = "reader_switched"
	ActivityParticipantsUpdated ActivityKind = "participants_updated"
	ActivityChallengeProgress   ActivityKind = "challenge_progress"
	ActivityBookStarted         ActivityKind = "book_started"
	ActivityProgressLogged      ActivityKind = "progress_logged"
	ActivityBookFinished        ActivityKind = "book_finished"
	ActivityStampCollected      ActivityKind = "stamp_collected"
)

// Activity is one journal entry describing an applied mutation
type Activity struct {
	ID             uuid.UUID
	At             time.Time
	Kind           ActivityKind
	ReaderID       int64
	ReaderName     string
	BookTitle      string // library name for stamps
	ChallengeID    int64
	ChallengeTitle string
	Amount         int64
}

// ReaderStat represents reading totals of one reader over a period
type ReaderStat struct {
	ReaderName    string
	Minutes       int64
	BooksFinished uint64
}
