package client

import (
	"sync"

	"github.com/himanshub16/songdesk/songs"
)

// SyncState tracks how much the local projection can be trusted.
type SyncState string

const (
	// StateSyncing means a full fetch is in flight (or needed).
	StateSyncing SyncState = "SYNCING"
	// StateLive means the projection is event-driven and trusted.
	StateLive SyncState = "LIVE"
	// StateStale means the connection dropped; the projection is frozen
	// and no event mutates it until a resync.
	StateStale SyncState = "STALE"
)

// Snapshot is one consistent view of the projection: the pending queue in
// (created_at, song_id) order with the designated urgent song extracted.
type Snapshot struct {
	State         SyncState
	Songs         []songs.Song
	UrgentMessage string
	UrgentID      int64
}

// Reconciler maintains a viewer's local projection of the pending queue,
// merging song_update events into it so most changes need no refetch. Lost
// connections are handled by refetching everything; missed events are never
// replayed.
type Reconciler struct {
	fetch func() ([]songs.Song, error)

	// OnChange, when set, is called after every accepted change with a
	// fresh snapshot. Called without internal locks held.
	OnChange func(Snapshot)

	mu      sync.Mutex
	state   SyncState
	pending []songs.Song // full pending set, designated urgent included
}

// NewReconciler builds a reconciler over a full-fetch function, normally
// APIClient.GetSongs.
func NewReconciler(fetch func() ([]songs.Song, error)) *Reconciler {
	return &Reconciler{
		fetch:   fetch,
		state:   StateSyncing,
		pending: make([]songs.Song, 0),
	}
}

// Resync refetches authoritative state and moves to LIVE. On failure the
// reconciler stays in SYNCING, its projection untouched.
func (r *Reconciler) Resync() error {
	r.mu.Lock()
	r.state = StateSyncing
	r.mu.Unlock()

	all, err := r.fetch()
	if err != nil {
		return err
	}

	pending := make([]songs.Song, 0, len(all))
	for _, s := range all {
		if s.Status == songs.StatusPending {
			pending = append(pending, s)
		}
	}
	songs.SortByCreation(pending)

	r.mu.Lock()
	r.pending = pending
	r.state = StateLive
	r.mu.Unlock()

	r.notify()
	return nil
}

// HandleDisconnect freezes the projection until the transport comes back.
func (r *Reconciler) HandleDisconnect() {
	r.mu.Lock()
	r.state = StateStale
	r.mu.Unlock()
	r.notify()
}

// HandleReconnect resynchronizes via full refetch; events that were
// published while the connection was down are gone for good.
func (r *Reconciler) HandleReconnect() error {
	return r.Resync()
}

// HandleEvent merges one song_update event into the projection. Events
// received while STALE or SYNCING are discarded, superseded by the pending
// refetch.
func (r *Reconciler) HandleEvent(evt songs.Event) {
	r.mu.Lock()
	if r.state != StateLive {
		r.mu.Unlock()
		return
	}

	if evt.Cleared() {
		r.pending = make([]songs.Song, 0)
		r.mu.Unlock()
		r.notify()
		return
	}
	if evt.Song == nil {
		r.mu.Unlock()
		return
	}

	updated := *evt.Song
	if updated.Status != songs.StatusPending {
		// resolved: drop it, idempotent if it was never here
		kept := r.pending[:0]
		for _, s := range r.pending {
			if s.SongID != updated.SongID {
				kept = append(kept, s)
			}
		}
		r.pending = kept
	} else {
		replaced := false
		for i, s := range r.pending {
			if s.SongID == updated.SongID {
				r.pending[i] = updated
				replaced = true
				break
			}
		}
		if !replaced {
			r.pending = append(r.pending, updated)
		}
		songs.SortByCreation(r.pending)
	}
	r.mu.Unlock()

	r.notify()
}

// Snapshot derives the viewer-facing projection: urgent designation first
// (earliest created urgent-tagged song wins), everything else in queue
// order.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	pending := make([]songs.Song, len(r.pending))
	copy(pending, r.pending)
	state := r.state
	r.mu.Unlock()

	msg, id, remaining := songs.SelectUrgent(pending)
	return Snapshot{
		State:         state,
		Songs:         remaining,
		UrgentMessage: msg,
		UrgentID:      id,
	}
}

func (r *Reconciler) notify() {
	if r.OnChange != nil {
		r.OnChange(r.Snapshot())
	}
}
