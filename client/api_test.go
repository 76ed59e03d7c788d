package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshub16/songdesk/songs"
)

func TestAPIClientGetSongs(t *testing.T) {
	list := []songs.Song{
		{SongID: 1, Title: "a", Status: songs.StatusPending, CreatedAt: time.Now().UTC()},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/songs/", r.URL.Path)
		json.NewEncoder(w).Encode(list)
	}))
	defer srv.Close()

	got, err := NewAPIClient(srv.URL).GetSongs()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].SongID)
}

func TestAPIClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Song not found"})
	}))
	defer srv.Close()

	api := NewAPIClient(srv.URL)
	_, err := api.GetSongByID(42)
	assert.ErrorIs(t, err, songs.ErrSongNotFound)
	_, err = api.UpdateSongStatus(42, songs.StatusDone)
	assert.ErrorIs(t, err, songs.ErrSongNotFound)
}

func TestAPIClientUpdateSongStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/songs/7", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status": "SKIPPED"}`, string(body))

		json.NewEncoder(w).Encode(songs.Song{SongID: 7, Title: "x", Status: songs.StatusSkipped})
	}))
	defer srv.Close()

	song, err := NewAPIClient(srv.URL).UpdateSongStatus(7, songs.StatusSkipped)
	require.NoError(t, err)
	assert.Equal(t, songs.StatusSkipped, song.Status)
}

func TestAPIClientSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "song already resolved"})
	}))
	defer srv.Close()

	err := NewAPIClient(srv.URL).ClearSongs()
	require.Error(t, err)
	assert.Equal(t, "song already resolved", err.Error())
}
