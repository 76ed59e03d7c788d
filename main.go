package main

import (
	"log"
	"net/url"
	"os"
)

func main() {

	var (
		songRepo SongRepository

		dbUrl    string
		pgdb     *PostgresRepository
		sqlitedb *SQLiteRepository

		hub     *Hub
		service *ServiceImpl
	)

	dbUrl = os.Getenv("DB_URL")
	if dbUrl == "" {
		dbUrl = "sqlite://songs.db"
	}
	log.Println("database url", dbUrl)

	u, err := url.Parse(dbUrl)
	if err != nil {
		log.Fatal("cannot parse DB_URL err:", err)
	}
	switch u.Scheme {
	case "sqlite":
		sqlitedb, err = NewSQLiteRepository(u.Host + u.Path)
		if err != nil {
			log.Fatal("cannot open sqlite db err:", err)
		}
		songRepo = sqlitedb

	case "postgres":
		pgdb = NewPostgresRepository(dbUrl)
		songRepo = pgdb

	default:
		log.Fatal("unsupported DB_URL scheme: ", u.Scheme)
	}

	hub = NewHub()
	defer hub.Shutdown()

	service = NewService(songRepo, hub)
	defer service.close()

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":1077"
	}

	echoRouter := NewHTTPRouter(service, hub, os.Getenv("STATIC_DIR"))
	log.Fatal(echoRouter.Start(addr))
}
