package main

import (
	"log"

	"github.com/himanshub16/songdesk/songs"
)

// Service is the single authority for queue semantics. Mutations either
// hit the store and publish the matching event, or do neither.
type Service interface {
	SubmitSong(title, body string) (*songs.Song, error)
	GetSongByID(id int64) (*songs.Song, error)
	GetAllSongs() ([]songs.Song, error)
	ListPending() ([]songs.Song, error)
	UpdateStatus(id int64, status songs.SongStatus) (*songs.Song, error)
	ClearAll() error
	close()
}

type ServiceImpl struct {
	songRepo SongRepository
	hub      *Hub
}

func NewService(songRepo SongRepository, hub *Hub) *ServiceImpl {
	return &ServiceImpl{
		songRepo: songRepo,
		hub:      hub,
	}
}

func (s *ServiceImpl) SubmitSong(title, body string) (*songs.Song, error) {
	song, err := s.songRepo.InsertSong(title, body)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(songs.Event{
		Message: "New song added: " + song.Title,
		Song:    song,
	})
	return song, nil
}

func (s *ServiceImpl) GetSongByID(id int64) (*songs.Song, error) {
	return s.songRepo.GetSongByID(id)
}

func (s *ServiceImpl) GetAllSongs() ([]songs.Song, error) {
	return s.songRepo.GetAllSongs()
}

// ListPending returns the PENDING songs in queue order. The order is
// deterministic for unchanged data: (created_at, song_id) ascending.
func (s *ServiceImpl) ListPending() ([]songs.Song, error) {
	all, err := s.songRepo.GetAllSongs()
	if err != nil {
		return nil, err
	}
	pending := make([]songs.Song, 0, len(all))
	for _, song := range all {
		if song.Status == songs.StatusPending {
			pending = append(pending, song)
		}
	}
	songs.SortByCreation(pending)
	return pending, nil
}

// UpdateStatus moves a song to a terminal status. The target must be DONE
// or SKIPPED; the store enforces that only PENDING songs move. The event is
// published only after the store accepted the mutation.
func (s *ServiceImpl) UpdateStatus(id int64, status songs.SongStatus) (*songs.Song, error) {
	if !status.IsTerminal() {
		return nil, songs.ErrInvalidStatus
	}
	song, err := s.songRepo.SetSongStatus(id, status)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(songs.Event{
		Message: "Song updated: " + song.Title,
		Song:    song,
	})
	return song, nil
}

func (s *ServiceImpl) ClearAll() error {
	if err := s.songRepo.ClearSongs(); err != nil {
		return err
	}
	log.Println("cleared all songs")
	s.hub.Publish(songs.Event{Message: songs.ClearedMessage})
	return nil
}

func (s *ServiceImpl) close() {
	s.songRepo.close()
}
