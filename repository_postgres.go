package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/himanshub16/songdesk/songs"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(dbUrl string) *PostgresRepository {
	db, err := sqlx.Connect("postgres", dbUrl)
	if err != nil {
		log.Fatal("cannot connect to postgres err:", err)
	}

	query := `
	  create table if not exists songs (
	    song_id    bigserial primary key,
	    title      text not null,
	    body       text not null,
	    status     text not null default 'PENDING',
	    created_at timestamptz not null
	  );`
	if _, err := db.Exec(query); err != nil {
		log.Fatal("cannot create songs table err:", err)
	}

	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertSong(title, body string) (*songs.Song, error) {
	query := `
	  insert into songs (title, body, status, created_at)
	  values ($1, $2, $3, $4)
	  returning song_id;`

	var songId int64
	err := r.db.QueryRow(query, title, body, songs.StatusPending, time.Now().UTC()).Scan(&songId)
	if err != nil {
		return nil, err
	}
	return r.GetSongByID(songId)
}

func (r *PostgresRepository) GetSongByID(id int64) (*songs.Song, error) {
	query := `
	  select song_id, title, body, status, created_at
	  from songs where song_id=$1;`

	s := songs.Song{}
	err := r.db.Get(&s, query, id)
	if err == sql.ErrNoRows {
		return nil, songs.ErrSongNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) GetAllSongs() ([]songs.Song, error) {
	query := `
	  select song_id, title, body, status, created_at
	  from songs order by song_id;`

	list := make([]songs.Song, 0)
	if err := r.db.Select(&list, query); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *PostgresRepository) SetSongStatus(id int64, status songs.SongStatus) (*songs.Song, error) {
	query := `
	  update songs set status=$1
	  where song_id=$2 and status=$3;`

	res, err := r.db.Exec(query, status, id, songs.StatusPending)
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

func (r *PostgresRepository) ClearSongs() error {
	_, err := r.db.Exec(`delete from songs;`)
	return err
}

func (r *PostgresRepository) close() {
	r.db.Close()
}
