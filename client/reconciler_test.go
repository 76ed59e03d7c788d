package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshub16/songdesk/songs"
)

func pendingSong(id int64, title string, createdAt time.Time) songs.Song {
	return songs.Song{
		SongID:    id,
		Title:     title,
		Body:      "body",
		Status:    songs.StatusPending,
		CreatedAt: createdAt,
	}
}

func resolvedSong(id int64, title string, status songs.SongStatus) songs.Song {
	return songs.Song{SongID: id, Title: title, Body: "body", Status: status}
}

func updateEvent(s songs.Song) songs.Event {
	return songs.Event{Message: "Song updated: " + s.Title, Song: &s}
}

// stubFetch returns fixed data and counts calls.
type stubFetch struct {
	data  []songs.Song
	err   error
	calls int
}

func (f *stubFetch) get() ([]songs.Song, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]songs.Song, len(f.data))
	copy(out, f.data)
	return out, nil
}

func liveReconciler(t *testing.T, data ...songs.Song) (*Reconciler, *stubFetch) {
	t.Helper()
	fetch := &stubFetch{data: data}
	rec := NewReconciler(fetch.get)
	require.NoError(t, rec.Resync())
	return rec, fetch
}

func projectionIDs(snap Snapshot) []int64 {
	ids := make([]int64, 0, len(snap.Songs))
	for _, s := range snap.Songs {
		ids = append(ids, s.SongID)
	}
	return ids
}

func TestResyncFiltersSortsAndSelectsUrgent(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, _ := liveReconciler(t,
		resolvedSong(1, "resolved", songs.StatusDone),
		pendingSong(2, "late", ts.Add(time.Hour)),
		pendingSong(3, "URGENT: sound check", ts.Add(time.Minute)),
		pendingSong(4, "early", ts),
	)

	snap := rec.Snapshot()
	assert.Equal(t, StateLive, snap.State)
	assert.Equal(t, "sound check", snap.UrgentMessage)
	assert.Equal(t, int64(3), snap.UrgentID)
	assert.Equal(t, []int64{4, 2}, projectionIDs(snap))
}

func TestResyncFailureKeepsSyncing(t *testing.T) {
	fetch := &stubFetch{err: errors.New("backend down")}
	rec := NewReconciler(fetch.get)

	require.Error(t, rec.Resync())
	assert.Equal(t, StateSyncing, rec.Snapshot().State)
}

func TestMergeOrderIndependentForDisjointIds(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []songs.Event{
		updateEvent(pendingSong(1, "a", ts.Add(2*time.Minute))),
		updateEvent(pendingSong(2, "URGENT: b", ts)),
		updateEvent(pendingSong(3, "c", ts.Add(time.Minute))),
		updateEvent(resolvedSong(4, "d", songs.StatusSkipped)),
	}

	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, perm := range permutations {
		rec, _ := liveReconciler(t)
		for _, i := range perm {
			rec.HandleEvent(events[i])
		}
		snap := rec.Snapshot()
		assert.Equal(t, "b", snap.UrgentMessage)
		assert.Equal(t, int64(2), snap.UrgentID)
		assert.Equal(t, []int64{3, 1}, projectionIDs(snap))
	}
}

func TestMergeIdempotent(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, _ := liveReconciler(t, pendingSong(1, "a", ts))

	evt := updateEvent(pendingSong(2, "b", ts.Add(time.Minute)))
	rec.HandleEvent(evt)
	once := rec.Snapshot()
	rec.HandleEvent(evt)
	twice := rec.Snapshot()
	assert.Equal(t, once, twice)

	// removal is idempotent too, even for ids never seen
	gone := updateEvent(resolvedSong(7, "ghost", songs.StatusDone))
	rec.HandleEvent(gone)
	rec.HandleEvent(gone)
	assert.Equal(t, once, rec.Snapshot())
}

func TestRoundTripMatchesDirectComputation(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	data := []songs.Song{
		pendingSong(2, "URGENT: first", ts),
		pendingSong(1, "plain", ts.Add(time.Minute)),
		resolvedSong(3, "gone", songs.StatusDone),
	}
	rec, _ := liveReconciler(t, data...)
	snap := rec.Snapshot()

	pending := []songs.Song{data[0], data[1]}
	songs.SortByCreation(pending)
	msg, id, remaining := songs.SelectUrgent(pending)

	assert.Equal(t, msg, snap.UrgentMessage)
	assert.Equal(t, id, snap.UrgentID)
	assert.Equal(t, remaining, snap.Songs)
}

func TestUrgentTieBreakAndHandover(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := pendingSong(1, "URGENT: A", ts)
	b := pendingSong(2, "URGENT: B", ts.Add(time.Minute))
	rec, _ := liveReconciler(t, a, b)

	snap := rec.Snapshot()
	assert.Equal(t, "A", snap.UrgentMessage)
	assert.Equal(t, int64(1), snap.UrgentID)

	// resolving A hands the designation to B
	rec.HandleEvent(updateEvent(resolvedSong(1, "URGENT: A", songs.StatusDone)))
	snap = rec.Snapshot()
	assert.Equal(t, "B", snap.UrgentMessage)
	assert.Equal(t, int64(2), snap.UrgentID)
	assert.Empty(t, snap.Songs)
}

func TestUrgentClearedWhenTitleLosesSentinel(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, _ := liveReconciler(t, pendingSong(1, "URGENT: A", ts))

	rec.HandleEvent(updateEvent(pendingSong(1, "calm again", ts)))
	snap := rec.Snapshot()
	assert.Empty(t, snap.UrgentMessage)
	assert.Zero(t, snap.UrgentID)
	assert.Equal(t, []int64{1}, projectionIDs(snap))
}

func TestClearedEventResetsProjection(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, _ := liveReconciler(t,
		pendingSong(1, "URGENT: A", ts),
		pendingSong(2, "b", ts.Add(time.Minute)),
	)

	rec.HandleEvent(songs.Event{Message: songs.ClearedMessage})
	snap := rec.Snapshot()
	assert.Empty(t, snap.Songs)
	assert.Empty(t, snap.UrgentMessage)
	assert.Zero(t, snap.UrgentID)
}

func TestEventsDiscardedWhileStale(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, fetch := liveReconciler(t, pendingSong(1, "a", ts))

	rec.HandleDisconnect()
	assert.Equal(t, StateStale, rec.Snapshot().State)

	// published during the outage, must never be applied
	rec.HandleEvent(updateEvent(pendingSong(2, "missed", ts.Add(time.Minute))))
	assert.Equal(t, []int64{1}, projectionIDs(rec.Snapshot()))

	// the server meanwhile moved on; resync adopts its state exactly
	fetch.data = []songs.Song{
		pendingSong(3, "fresh", ts.Add(2 * time.Minute)),
	}
	require.NoError(t, rec.HandleReconnect())
	snap := rec.Snapshot()
	assert.Equal(t, StateLive, snap.State)
	assert.Equal(t, []int64{3}, projectionIDs(snap))
}

func TestOnChangeFiresWithFreshSnapshot(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fetch := &stubFetch{data: []songs.Song{pendingSong(1, "a", ts)}}
	rec := NewReconciler(fetch.get)

	snaps := make([]Snapshot, 0)
	rec.OnChange = func(s Snapshot) { snaps = append(snaps, s) }

	require.NoError(t, rec.Resync())
	rec.HandleEvent(updateEvent(pendingSong(2, "b", ts.Add(time.Minute))))

	require.Len(t, snaps, 2)
	assert.Equal(t, []int64{1}, projectionIDs(snaps[0]))
	assert.Equal(t, []int64{1, 2}, projectionIDs(snaps[1]))
}
