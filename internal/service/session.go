package service

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
)

// Session persists the authentication cookies of one service between runs.
type Session struct {
	path string
}

func NewSession(path string) (instance *Session) {
	instance = &Session{path: path}
	return
}

func (session *Session) Store(cookies []*http.Cookie) (err error) {
	if err = os.MkdirAll(filepath.Dir(session.path), 0755); err != nil {
		return
	}
	var payload []byte
	if payload, err = json.Marshal(cookies); err != nil {
		return
	}
	err = os.WriteFile(session.path, payload, 0600)
	return
}

// Cookies returns the stored cookies, or none when no session exists.
func (session *Session) Cookies() (cookies []*http.Cookie, err error) {
	payload, readErr := os.ReadFile(session.path)
	if os.IsNotExist(readErr) {
		return
	} else if readErr != nil {
		err = readErr
		return
	}
	err = json.Unmarshal(payload, &cookies)
	return
}

func (session *Session) Exists() bool {
	_, err := os.Stat(session.path)
	return err == nil
}

func (session *Session) Clear() (err error) {
	if err = os.Remove(session.path); os.IsNotExist(err) {
		err = nil
	}
	return
}
