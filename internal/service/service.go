// Package service defines the contract between the launcher and external
// game library providers, and the engine driving their synchronization.
package service

import (
	"context"
	"net/http"

	"arkhive.dev/hearth/internal/entity"
	"arkhive.dev/hearth/internal/media"
)

type State int

const (
	UNCONFIGURED State = iota
	CONFIGURED
	AUTHENTICATED
	LOADED
)

func (state State) String() string {
	switch state {
	case CONFIGURED:
		return "configured"
	case AUTHENTICATED:
		return "authenticated"
	case LOADED:
		return "loaded"
	default:
		return "unconfigured"
	}
}

// Service is one external game library provider. Implementations own their
// configuration, their authentication session and the mapping of upstream
// records into local service games.
type Service interface {
	ID() string
	Name() string
	Runner() string

	// Medias lists the artwork variants the service publishes. DefaultMedia
	// names the variant consumers should prefer.
	Medias() []media.Media
	DefaultMedia() string
	// MediaURL resolves the remote address of one artwork variant from the
	// details payload of a stored game. Games without the asset resolve to
	// false.
	MediaURL(variant media.Media, details map[string]interface{}) (string, bool)

	// LoginURL returns the address the user must visit to authenticate.
	LoginURL() (string, error)
	// LoginCallback receives the session cookies collected after the user
	// completed the login flow.
	LoginCallback(cookies []*http.Cookie) error
	Logout() error

	IsConfigured() bool
	IsAuthenticated() bool
	IsConnected() bool
	State() State

	// Load fetches the remote library and persists it locally, returning
	// the stored games.
	Load(ctx context.Context) ([]entity.ServiceGame, error)
}
