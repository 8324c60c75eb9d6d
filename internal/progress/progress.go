// Package progress turns reader and book collections into display numbers.
//
// Everything here is read-only: callers pass the collections of the current
// snapshot and get fresh values back. Challenge completion is decided by the
// per-reader progress map only; book records feed display statistics.
package progress

import (
	"math"

	"familyreads/internal/models"
)

// Summary holds the family-wide numbers for one challenge
type Summary struct {
	Challenge      models.Challenge
	Participants   []models.ReaderID
	TotalProgress  int
	Percentage     int
	TotalMinutes   int
	BooksFinished  int
	BookOfTheMonth bool
}

// Joined reports whether at least one family member takes part
func (s Summary) Joined() bool {
	return len(s.Participants) > 0
}

// Badge is a challenge together with the readers who completed it
type Badge struct {
	Challenge models.Challenge
	Earners   []models.Reader
}

// Percentage returns round(100*progress/goal) clamped to [0, 100].
// A goal of zero or less yields 0.
func Percentage(progress, goal int) int {
	if goal <= 0 {
		return 0
	}
	p := int(math.Round(float64(progress) / float64(goal) * 100))
	return min(max(p, 0), 100)
}

// Clamp bounds a progress value to [0, goal]
func Clamp(value, goal int) int {
	return max(0, min(value, goal))
}

// Participants returns the ids of readers who joined the challenge, in reader order
func Participants(challengeID models.ChallengeID, readers []models.Reader) []models.ReaderID {
	var ids []models.ReaderID
	for _, r := range readers {
		if r.HasJoined(challengeID) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// TotalProgress sums the stored progress of every reader who joined the challenge
func TotalProgress(challengeID models.ChallengeID, readers []models.Reader) int {
	total := 0
	for _, r := range readers {
		if r.HasJoined(challengeID) {
			total += r.ProgressFor(challengeID)
		}
	}
	return total
}

// Totals returns minutes read and books finished for books linked to the
// challenge and owned by a participating reader
func Totals(challengeID models.ChallengeID, readers []models.Reader, books []models.Book) (minutes, finished int) {
	participating := make(map[models.ReaderID]bool)
	for _, id := range Participants(challengeID, readers) {
		participating[id] = true
	}

	for _, b := range books {
		if b.ChallengeID != challengeID || !participating[b.ReaderID] {
			continue
		}
		minutes += b.ProgressMinutes
		if b.Status == models.StatusFinished {
			finished++
		}
	}
	return minutes, finished
}

// Summarize computes the family summary of one challenge
func Summarize(c models.Challenge, readers []models.Reader, books []models.Book) Summary {
	total := TotalProgress(c.ID, readers)
	minutes, finished := Totals(c.ID, readers, books)
	return Summary{
		Challenge:      c,
		Participants:   Participants(c.ID, readers),
		TotalProgress:  total,
		Percentage:     Percentage(total, c.Goal),
		TotalMinutes:   minutes,
		BooksFinished:  finished,
		BookOfTheMonth: c.BookOfTheMonth,
	}
}

// Earners returns joined readers whose progress reached the goal
func Earners(c models.Challenge, readers []models.Reader) []models.Reader {
	var earners []models.Reader
	for _, r := range readers {
		if r.HasJoined(c.ID) && r.ProgressFor(c.ID) >= c.Goal {
			earners = append(earners, r)
		}
	}
	return earners
}

// Badges returns every challenge that has at least one earner, in catalog order
func Badges(challenges []models.Challenge, readers []models.Reader) []Badge {
	var badges []Badge
	for _, c := range challenges {
		if earners := Earners(c, readers); len(earners) > 0 {
			badges = append(badges, Badge{Challenge: c, Earners: earners})
		}
	}
	return badges
}

// BookPercentage is the share of a minutes goal covered by one book.
// It is zero unless the book's challenge is measured in minutes.
func BookPercentage(b models.Book, c models.Challenge) int {
	if !b.Linked() || b.ChallengeID != c.ID || c.Unit != models.UnitMinutes {
		return 0
	}
	return Percentage(b.ProgressMinutes, c.Goal)
}
