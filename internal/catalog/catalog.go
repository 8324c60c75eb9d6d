// Package catalog loads the static seed the application starts from:
// the family, their books, the challenge catalog and the library listings.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"familyreads/internal/models"
	"familyreads/internal/state"
)

//go:embed seed.yaml
var defaultSeed []byte

type readerEntry struct {
	ID       int64         `yaml:"id"`
	Name     string        `yaml:"name"`
	Avatar   string        `yaml:"avatar"`
	AgeRange string        `yaml:"age_range"`
	Joined   []int64       `yaml:"joined"`
	Progress map[int64]int `yaml:"progress"`
}

type bookEntry struct {
	ID        int64  `yaml:"id"`
	Reader    int64  `yaml:"reader"`
	Title     string `yaml:"title"`
	Author    string `yaml:"author"`
	Status    string `yaml:"status"`
	Challenge int64  `yaml:"challenge"`
	Minutes   int    `yaml:"minutes"`
}

type challengeEntry struct {
	ID             int64  `yaml:"id"`
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	Goal           int    `yaml:"goal"`
	Badge          string `yaml:"badge"`
	Unit           string `yaml:"unit"`
	Category       string `yaml:"category"`
	BookOfTheMonth bool   `yaml:"book_of_the_month"`
}

type eventEntry struct {
	ID       int64  `yaml:"id"`
	Title    string `yaml:"title"`
	Location string `yaml:"location"`
	Date     string `yaml:"date"`
}

type libraryEntry struct {
	ID        int64  `yaml:"id"`
	Name      string `yaml:"name"`
	Location  string `yaml:"location"`
	StampCode string `yaml:"stamp_code"`
}

type recommendationEntry struct {
	ID          int64  `yaml:"id"`
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Emoji       string `yaml:"emoji"`
}

type bookClubEntry struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	CurrentBook string `yaml:"current_book"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Emoji       string `yaml:"emoji"`
	JoinLink    string `yaml:"join_link"`
}

type seedFile struct {
	CurrentReader   int64                            `yaml:"current_reader"`
	Readers         []readerEntry                    `yaml:"readers"`
	Books           []bookEntry                      `yaml:"books"`
	Challenges      []challengeEntry                 `yaml:"challenges"`
	Events          []eventEntry                     `yaml:"events"`
	Libraries       []libraryEntry                   `yaml:"libraries"`
	Recommendations map[string][]recommendationEntry `yaml:"recommendations"`
	BookClubs       []bookClubEntry                  `yaml:"book_clubs"`
}

// Seed is the decoded and validated seed data
type Seed struct {
	CurrentReader   models.ReaderID
	Readers         []models.Reader
	Books           []models.Book
	Challenges      []models.Challenge
	Events          []models.Event
	Libraries       []models.Library
	Recommendations map[models.AgeRange][]models.Recommendation
	BookClubs       []models.BookClub
}

// Load reads the seed from path, or the built-in seed when path is empty
func Load(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML
func Parse(data []byte) (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}

	seed := &Seed{
		CurrentReader:   models.ReaderID(f.CurrentReader),
		Recommendations: make(map[models.AgeRange][]models.Recommendation),
	}

	for _, c := range f.Challenges {
		seed.Challenges = append(seed.Challenges, models.Challenge{
			ID:             models.ChallengeID(c.ID),
			Title:          c.Title,
			Description:    c.Description,
			Goal:           c.Goal,
			Unit:           models.Unit(c.Unit),
			Badge:          c.Badge,
			Category:       models.Category(c.Category),
			BookOfTheMonth: c.BookOfTheMonth,
		})
	}

	for _, r := range f.Readers {
		reader := models.Reader{
			ID:                 models.ReaderID(r.ID),
			Name:               r.Name,
			Avatar:             r.Avatar,
			AgeRange:           models.AgeRange(r.AgeRange),
			JoinedChallengeIDs: make([]models.ChallengeID, 0, len(r.Joined)),
			Progress:           make(map[models.ChallengeID]int, len(r.Progress)),
		}
		for _, id := range r.Joined {
			reader.JoinedChallengeIDs = append(reader.JoinedChallengeIDs, models.ChallengeID(id))
		}
		for id, p := range r.Progress {
			reader.Progress[models.ChallengeID(id)] = p
		}
		seed.Readers = append(seed.Readers, reader)
	}

	for _, b := range f.Books {
		seed.Books = append(seed.Books, models.Book{
			ID:              models.BookID(b.ID),
			ReaderID:        models.ReaderID(b.Reader),
			Title:           b.Title,
			Author:          b.Author,
			Status:          models.BookStatus(b.Status),
			ChallengeID:     models.ChallengeID(b.Challenge),
			ProgressMinutes: b.Minutes,
		})
	}

	for _, e := range f.Events {
		seed.Events = append(seed.Events, models.Event(e))
	}
	for _, l := range f.Libraries {
		seed.Libraries = append(seed.Libraries, models.Library(l))
	}
	for age, recs := range f.Recommendations {
		for _, r := range recs {
			seed.Recommendations[models.AgeRange(age)] = append(seed.Recommendations[models.AgeRange(age)], models.Recommendation(r))
		}
	}
	for _, c := range f.BookClubs {
		seed.BookClubs = append(seed.BookClubs, models.BookClub(c))
	}

	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return seed, nil
}

// Snapshot builds the initial state from the seed. The seed keeps its own
// copies, so the returned snapshot can be handed to a store directly.
func (s *Seed) Snapshot() state.Snapshot {
	readers := make([]models.Reader, len(s.Readers))
	for i, r := range s.Readers {
		readers[i] = r.Clone()
	}
	current := s.CurrentReader
	if current == 0 && len(readers) > 0 {
		current = readers[0].ID
	}
	return state.Snapshot{
		Readers:         readers,
		Books:           append([]models.Book(nil), s.Books...),
		Challenges:      append([]models.Challenge(nil), s.Challenges...),
		CurrentReaderID: current,
	}
}

// Library finds the library a stamp code belongs to
func (s *Seed) Library(code string) (models.Library, bool) {
	for _, l := range s.Libraries {
		if l.StampCode == code {
			return l, true
		}
	}
	return models.Library{}, false
}

func (s *Seed) validate() error {
	goals := make(map[models.ChallengeID]int)
	challenges := make(map[models.ChallengeID]bool)
	for _, c := range s.Challenges {
		if challenges[c.ID] {
			return fmt.Errorf("duplicate challenge id %d", c.ID)
		}
		if c.Unit != models.UnitMinutes && c.Unit != models.UnitBooks {
			return fmt.Errorf("challenge %d: unknown unit %q", c.ID, c.Unit)
		}
		challenges[c.ID] = true
		goals[c.ID] = c.Goal
	}

	readers := make(map[models.ReaderID]bool)
	for _, r := range s.Readers {
		if readers[r.ID] {
			return fmt.Errorf("duplicate reader id %d", r.ID)
		}
		if !r.AgeRange.Valid() {
			return fmt.Errorf("reader %d: unknown age range %q", r.ID, r.AgeRange)
		}
		for _, id := range r.JoinedChallengeIDs {
			if !challenges[id] {
				return fmt.Errorf("reader %d joined unknown challenge %d", r.ID, id)
			}
		}
		// Progress stays within [0, goal]
		for id, p := range r.Progress {
			if !challenges[id] {
				return fmt.Errorf("reader %d has progress on unknown challenge %d", r.ID, id)
			}
			if p < 0 || p > goals[id] {
				return fmt.Errorf("reader %d: progress %d on challenge %d is outside [0, %d]", r.ID, p, id, goals[id])
			}
		}
		readers[r.ID] = true
	}
	if s.CurrentReader != 0 && !readers[s.CurrentReader] {
		return fmt.Errorf("current reader %d is not a reader", s.CurrentReader)
	}

	books := make(map[models.BookID]bool)
	for _, b := range s.Books {
		if books[b.ID] {
			return fmt.Errorf("duplicate book id %d", b.ID)
		}
		if !readers[b.ReaderID] {
			return fmt.Errorf("book %d belongs to unknown reader %d", b.ID, b.ReaderID)
		}
		if b.Linked() && !challenges[b.ChallengeID] {
			return fmt.Errorf("book %d linked to unknown challenge %d", b.ID, b.ChallengeID)
		}
		switch b.Status {
		case models.StatusReading, models.StatusFinished, models.StatusToRead:
		default:
			return fmt.Errorf("book %d: unknown status %q", b.ID, b.Status)
		}
		books[b.ID] = true
	}

	for age := range s.Recommendations {
		if !age.Valid() {
			return fmt.Errorf("recommendations for unknown age range %q", age)
		}
	}
	return nil
}
