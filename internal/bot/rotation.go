package bot

import (
	"familyreads/internal/models"
)

// NextReader determines whose turn it is to read after last.
//
// Rotation rules:
// 1. Kids and teens rotate in family order
// 2. After the last young reader, the adults follow in family order
// 3. After the last adult, rotation returns to the first young reader
// 4. If last is unknown, start with the first young reader
//
// It returns 0 when there are no readers at all.
func NextReader(readers []models.Reader, last models.ReaderID) models.ReaderID {
	if len(readers) == 0 {
		return 0
	}

	var young, adults []models.ReaderID
	for _, r := range readers {
		if r.AgeRange == models.AgeAdults {
			adults = append(adults, r.ID)
		} else {
			young = append(young, r.ID)
		}
	}

	return following(append(young, adults...), last)
}

// following returns the id after last in ids, wrapping around
func following(ids []models.ReaderID, last models.ReaderID) models.ReaderID {
	for i, id := range ids {
		if id == last {
			return ids[(i+1)%len(ids)]
		}
	}
	return ids[0]
}
