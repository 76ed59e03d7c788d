// Package client talks to a songdesk backend: plain CRUD over HTTP plus a
// persistent socket feeding a local projection of the pending queue.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/himanshub16/songdesk/songs"
)

// APIClient wraps the CRUD surface of the backend. One endpoint address
// covers both this and the socket.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *APIClient) GetSongs() ([]songs.Song, error) {
	resp, err := a.http.Get(a.baseURL + "/songs/")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	list := make([]songs.Song, 0)
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

func (a *APIClient) GetSongByID(id int64) (*songs.Song, error) {
	resp, err := a.http.Get(fmt.Sprintf("%s/songs/%d", a.baseURL, id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, songs.ErrSongNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	s := songs.Song{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *APIClient) SubmitSong(title, body string) (*songs.Song, error) {
	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
	})
	if err != nil {
		return nil, err
	}

	resp, err := a.http.Post(a.baseURL+"/songs/", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	s := songs.Song{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *APIClient) UpdateSongStatus(id int64, status songs.SongStatus) (*songs.Song, error) {
	payload, err := json.Marshal(map[string]songs.SongStatus{"status": status})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/songs/%d", a.baseURL, id), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, songs.ErrSongNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	s := songs.Song{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *APIClient) ClearSongs() error {
	req, err := http.NewRequest(http.MethodDelete, a.baseURL+"/songs/clear", nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body := struct {
		Message string `json:"message"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return errors.New(body.Message)
}
