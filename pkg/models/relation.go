package models

import (
	"fmt"
	"time"
)

// ReadingStatus is the closed set of per-book reading states.
// The zero value is not a valid status.
type ReadingStatus uint8

const (
	StatusReading ReadingStatus = iota + 1
	StatusToRead
	// StatusFinished is accepted by the backend and decoded, but the client never sets it.
	StatusFinished
)

var readingStatusNames = map[ReadingStatus]string{
	StatusReading:  "READING",
	StatusToRead:   "TO_READ",
	StatusFinished: "FINISHED",
}

// ParseReadingStatus converts the wire value into a ReadingStatus.
func ParseReadingStatus(s string) (ReadingStatus, error) {
	for st, name := range readingStatusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown reading status %q", s)
}

func (s ReadingStatus) String() string {
	if name, ok := readingStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ReadingStatus(%d)", uint8(s))
}

// Valid reports whether s is one of the declared statuses.
func (s ReadingStatus) Valid() bool {
	_, ok := readingStatusNames[s]
	return ok
}

func (s ReadingStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid reading status %d", uint8(s))
	}
	return []byte(readingStatusNames[s]), nil
}

func (s *ReadingStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseReadingStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FavoriteRelation links the current user to a favorite book.
// Existence of the record is the membership.
type FavoriteRelation struct {
	ID        int64      `json:"id"`
	BookID    int64      `json:"book"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// StatusRelation carries the reading status of one book for the current user.
// At most one exists per book.
type StatusRelation struct {
	ID        int64         `json:"id"`
	BookID    int64         `json:"book"`
	Status    ReadingStatus `json:"status"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
}
