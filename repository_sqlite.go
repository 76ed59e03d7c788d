package main

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/himanshub16/songdesk/songs"
)

type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(filePath string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}

	// make sure the required tables exist
	// if not then create them
	createSongsTableQuery := `
	  CREATE TABLE IF NOT EXISTS songs (
	    song_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	    title      TEXT NOT NULL,
	    body       TEXT NOT NULL,
	    status     TEXT NOT NULL DEFAULT 'PENDING',
	    created_at TIMESTAMP NOT NULL
	  );`
	if _, err := db.Exec(createSongsTableQuery); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) InsertSong(title, body string) (*songs.Song, error) {
	now := time.Now().UTC()
	res, err := r.db.Exec(
		`INSERT INTO songs (title, body, status, created_at) VALUES (?, ?, ?, ?)`,
		title, body, songs.StatusPending, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetSongByID(id)
}

func (r *SQLiteRepository) GetSongByID(id int64) (*songs.Song, error) {
	s := songs.Song{}
	err := r.db.Get(&s,
		`SELECT song_id, title, body, status, created_at FROM songs WHERE song_id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, songs.ErrSongNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRepository) GetAllSongs() ([]songs.Song, error) {
	list := make([]songs.Song, 0)
	err := r.db.Select(&list,
		`SELECT song_id, title, body, status, created_at FROM songs ORDER BY song_id`)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *SQLiteRepository) SetSongStatus(id int64, status songs.SongStatus) (*songs.Song, error) {
	// the WHERE clause is the monotonic guard: only a PENDING song may move
	res, err := r.db.Exec(
		`UPDATE songs SET status = ? WHERE song_id = ? AND status = ?`,
		status, id, songs.StatusPending,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, err := r.GetSongByID(id); err != nil {
			return nil, err
		}
		return nil, songs.ErrInvalidTransition
	}
	return r.GetSongByID(id)
}

func (r *SQLiteRepository) ClearSongs() error {
	_, err := r.db.Exec(`DELETE FROM songs`)
	return err
}

func (r *SQLiteRepository) close() {
	r.db.Close()
}
