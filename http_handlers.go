package main

// this file contains implementation of HTTP handlers - REST API + websocket

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"

	"github.com/himanshub16/songdesk/songs"
)

// Liveness bounds for established socket connections: a viewer that
// answers no ping for pongWait is treated as disconnected.
const (
	pongWait      = 2 * time.Second
	pingInterval  = pongWait * 9 / 10
	writeDeadline = 1 * time.Second
)

var (
	service  Service
	hub      *Hub
	upgrader = websocket.Upgrader{
		// the frontend may be served from anywhere
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

func NewHTTPRouter(_service Service, _hub *Hub, staticDir string) *echo.Echo {
	service = _service
	hub = _hub

	r := echo.New()
	r.HideBanner = true
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))
	r.Use(middleware.CORS())

	r.GET("/health", healthCheckHandler)
	r.GET("/ws", socketHandler)

	songGroup := r.Group("/songs")
	{
		songGroup.POST("/", newSongHandler)
		songGroup.GET("/", allSongsHandler)
		songGroup.GET("/pending", pendingSongsHandler)
		songGroup.GET("/:id", songByIdHandler)
		songGroup.PUT("/:id", updateSongStatusHandler)
		songGroup.DELETE("/clear", clearSongsHandler)
	}

	// serve the built frontend when present, index fallback for SPA routes
	if staticDir != "" {
		r.Static("/assets", filepath.Join(staticDir, "assets"))
		r.File("/", filepath.Join(staticDir, "index.html"))
		r.File("/*", filepath.Join(staticDir, "index.html"))
	}

	return r
}

func newSongHandler(c echo.Context) error {
	form := struct {
		Title string `json:"title" form:"title"`
		Body  string `json:"body" form:"body"`
	}{}
	if err := c.Bind(&form); err != nil || form.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing title",
		})
	}

	song, err := service.SubmitSong(form.Title, form.Body)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, song)
}

func allSongsHandler(c echo.Context) error {
	list, err := service.GetAllSongs()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, list)
}

func pendingSongsHandler(c echo.Context) error {
	list, err := service.ListPending()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, list)
}

func songByIdHandler(c echo.Context) error {
	sid, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Bad song id",
		})
	}
	song, err := service.GetSongByID(sid)
	if errors.Is(err, songs.ErrSongNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "Song not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, song)
}

func updateSongStatusHandler(c echo.Context) error {
	sid, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Bad song id",
		})
	}
	form := struct {
		Status songs.SongStatus `json:"status" form:"status"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing status",
		})
	}

	song, err := service.UpdateStatus(sid, form.Status)
	switch {
	case errors.Is(err, songs.ErrSongNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "Song not found",
		})
	case errors.Is(err, songs.ErrInvalidStatus), errors.Is(err, songs.ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": err.Error(),
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, song)
}

func clearSongsHandler(c echo.Context) error {
	if err := service.ClearAll(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "All songs cleared successfully",
	})
}

func healthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "I am up and running!")
}

// socketHandler upgrades the connection and pumps hub events to the viewer
// until either side goes away. One goroutine reads (only to learn about the
// peer closing), the handler itself writes.
func socketHandler(c echo.Context) error {
	// subscribe before the upgrade completes: once the client's dial
	// returns, every later publish is guaranteed to reach it
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	peerGone := make(chan struct{})
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				close(peerGone)
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case evt, ok := <-sub.Events:
			if !ok {
				// hub shut down
				ws.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return nil
			}
			if err := ws.WriteJSON(evt); err != nil {
				log.Println("failed to send event to", sub.ID, "err:", err)
				return nil
			}

		case <-pingTicker.C:
			deadline := time.Now().Add(writeDeadline)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return nil
			}

		case <-peerGone:
			return nil
		}
	}
}
