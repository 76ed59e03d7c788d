package main

import "github.com/himanshub16/songdesk/songs"

// SongRepository is the persistence contract for the queue store. NotFound
// and InvalidTransition are expected outcomes, surfaced as the sentinel
// errors in the songs package, never as panics.
type SongRepository interface {
	InsertSong(title, body string) (*songs.Song, error)
	GetSongByID(id int64) (*songs.Song, error)
	GetAllSongs() ([]songs.Song, error)
	SetSongStatus(id int64, status songs.SongStatus) (*songs.Song, error)
	ClearSongs() error
	close()
}
