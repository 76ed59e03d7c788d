// Package songs defines the data structures shared between the backend
// and its clients, plus the urgent-selection rule both sides apply.
package songs

import (
	"errors"
	"sort"
	"strings"
	"time"
)

type SongStatus string

const (
	StatusPending SongStatus = "PENDING"
	StatusDone    SongStatus = "DONE"
	StatusSkipped SongStatus = "SKIPPED"
)

// UrgentPrefix marks a pending song for out-of-band display.
const UrgentPrefix = "URGENT:"

// ClearedMessage is the event message that signals the whole queue was
// emptied; such events carry no song.
const ClearedMessage = "All songs cleared from database"

var (
	ErrSongNotFound      = errors.New("song not found")
	ErrInvalidStatus     = errors.New("status must be DONE or SKIPPED")
	ErrInvalidTransition = errors.New("song already resolved")
)

type Song struct {
	SongID    int64      `json:"song_id" db:"song_id"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	Status    SongStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Event is the payload pushed over the socket for every accepted mutation.
// A nil Song with Message == ClearedMessage means the queue was cleared.
type Event struct {
	Message string `json:"message"`
	Song    *Song  `json:"song"`
}

// Cleared reports whether the event signals a full queue clear.
func (e Event) Cleared() bool {
	return e.Song == nil && e.Message == ClearedMessage
}

// IsTerminal reports whether no further transition is permitted.
func (s SongStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// IsUrgent reports whether the song carries the urgent sentinel.
func (s Song) IsUrgent() bool {
	return strings.HasPrefix(s.Title, UrgentPrefix)
}

// UrgentMessage returns the title with the sentinel and any following
// whitespace stripped.
func (s Song) UrgentMessage() string {
	return strings.TrimSpace(strings.TrimPrefix(s.Title, UrgentPrefix))
}

// SortByCreation orders songs by (created_at, song_id) ascending, the sole
// ordering key for queue position. Ties on created_at break by id so the
// order is deterministic across repeated calls.
func SortByCreation(list []Song) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].SongID < list[j].SongID
	})
}

// SelectUrgent scans pending (already in queue order) and designates the
// first urgent-tagged song. Only the designated song is extracted; later
// urgent-tagged songs stay in the plain list, still prefixed, so a newer
// submission cannot steal the banner from one that is already surfaced.
// Returns the stripped message, the designated id and the remaining list.
// With no urgent song present, message is "" and id is 0.
func SelectUrgent(pending []Song) (string, int64, []Song) {
	for i, s := range pending {
		if s.IsUrgent() {
			remaining := make([]Song, 0, len(pending)-1)
			remaining = append(remaining, pending[:i]...)
			remaining = append(remaining, pending[i+1:]...)
			return s.UrgentMessage(), s.SongID, remaining
		}
	}
	return "", 0, pending
}
