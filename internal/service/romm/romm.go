// Package romm integrates a self-hosted RomM server as a launcher service.
// RomM keeps the user's rom collection behind a cookie authenticated REST
// API, so the service persists the session cookies of one login flow and
// replays them on every library fetch.
package romm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"arkhive.dev/hearth/internal/database"
	"arkhive.dev/hearth/internal/entity"
	"arkhive.dev/hearth/internal/folder"
	"arkhive.dev/hearth/internal/media"
	"arkhive.dev/hearth/internal/network"
	"arkhive.dev/hearth/internal/service"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	ServiceID   = "romm"
	serviceName = "RomM"
	runnerName  = "libretro"

	// RomM serves at most this many entries per listing request.
	libraryPageLimit    = 250
	libraryFetchRetries = 3
)

var (
	ErrNotConfigured = errors.New("romm: service is not configured")
	ErrNoHost        = errors.New("romm: host URL is required")
)

type configuration struct {
	Host string `json:"host"`
}

// rommGame is the subset of a RomM rom record the launcher keys on. The
// full record is persisted verbatim as the game details.
type rommGame struct {
	ID   json.Number `json:"id"`
	Slug string      `json:"slug"`
	Name string      `json:"name"`
}

type Service struct {
	databaseEngine *database.DatabaseEngine
	networkEngine  *network.NetworkEngine
	registry       *service.Registry
	configPath     string
	session        *service.Session
	host           string
	loaded         bool
}

// NewService restores any persisted configuration from basePath and joins
// the registry.
func NewService(databaseEngine *database.DatabaseEngine, networkEngine *network.NetworkEngine, registry *service.Registry, basePath string) (instance *Service, err error) {
	instance = &Service{
		databaseEngine: databaseEngine,
		networkEngine:  networkEngine,
		registry:       registry,
		configPath:     filepath.Join(basePath, ServiceID, "config.json"),
		session:        service.NewSession(filepath.Join(basePath, folder.SessionsPath, ServiceID+".json")),
	}
	if err = instance.loadConfiguration(); err != nil {
		return
	}
	err = registry.Register(instance)
	return
}

func (rommService *Service) loadConfiguration() (err error) {
	payload, readErr := os.ReadFile(rommService.configPath)
	if os.IsNotExist(readErr) {
		return
	} else if readErr != nil {
		err = readErr
		return
	}
	var config configuration
	if err = json.Unmarshal(payload, &config); err != nil {
		err = fmt.Errorf("reading %s: %w", rommService.configPath, err)
		return
	}
	rommService.host = config.Host
	return
}

func (rommService *Service) ID() string {
	return ServiceID
}

func (rommService *Service) Name() string {
	return serviceName
}

func (rommService *Service) Runner() string {
	return runnerName
}

func (rommService *Service) Host() string {
	return rommService.host
}

// Medias lists the artwork variants RomM publishes. The icon variants all
// resolve from the same upstream icon path, only the rendered size differs.
// Covers come from the dedicated cover path fields of the rom record.
func (rommService *Service) Medias() []media.Media {
	return []media.Media{
		{Name: "small_icon", Width: 35, Height: 35, Source: "icon", FilePattern: "%s.png"},
		{Name: "icon", Width: 70, Height: 70, Source: "icon", FilePattern: "%s.png"},
		{Name: "big_icon", Width: 105, Height: 105, Source: "icon", FilePattern: "%s.png"},
		{Name: "small_cover", Width: 176, Height: 234, Source: "path_cover_small", FilePattern: "%s.jpg"},
		{Name: "big_cover", Width: 264, Height: 352, Source: "path_cover_large", FilePattern: "%s.jpg"},
	}
}

func (rommService *Service) DefaultMedia() string {
	return "icon"
}

func (rommService *Service) MediaURL(variant media.Media, details map[string]interface{}) (string, bool) {
	if !rommService.IsConfigured() {
		return "", false
	}
	return variant.URL(rommService.host, details)
}

// Configure persists the RomM host address. One trailing slash is stripped
// so path concatenation cannot produce double separators.
func (rommService *Service) Configure(hostURL string) (err error) {
	if hostURL == "" {
		err = ErrNoHost
		return
	}
	hostURL = strings.TrimSuffix(hostURL, "/")
	var parsedURL *url.URL
	if parsedURL, err = url.Parse(hostURL); err != nil {
		return
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		err = fmt.Errorf("unsupported host URL scheme %q", parsedURL.Scheme)
		return
	}
	if err = os.MkdirAll(filepath.Dir(rommService.configPath), 0755); err != nil {
		return
	}
	var payload []byte
	if payload, err = json.Marshal(configuration{Host: hostURL}); err != nil {
		return
	}
	if err = os.WriteFile(rommService.configPath, payload, 0644); err != nil {
		return
	}
	rommService.host = hostURL
	return
}

// LoginURL returns the address the user must visit to authenticate against
// the configured RomM server.
func (rommService *Service) LoginURL() (loginURL string, err error) {
	if !rommService.IsConfigured() {
		err = ErrNotConfigured
		return
	}
	loginURL = rommService.host + "/login?next=/"
	return
}

// LoginCallback stores the cookies collected by the login flow and
// broadcasts the new session.
func (rommService *Service) LoginCallback(cookies []*http.Cookie) (err error) {
	if len(cookies) == 0 {
		err = errors.New("login flow returned no session cookie")
		return
	}
	if err = rommService.session.Store(cookies); err != nil {
		return
	}
	rommService.registry.NotifyLogin(rommService)
	return
}

func (rommService *Service) Logout() (err error) {
	if err = rommService.session.Clear(); err != nil {
		return
	}
	rommService.loaded = false
	rommService.registry.NotifyLogout(rommService)
	return
}

func (rommService *Service) IsConfigured() bool {
	return rommService.host != ""
}

func (rommService *Service) IsAuthenticated() bool {
	cookies, err := rommService.session.Cookies()
	return err == nil && len(cookies) > 0
}

// IsConnected does not probe the server, a stored session counts as
// connected.
func (rommService *Service) IsConnected() bool {
	return rommService.IsAuthenticated()
}

func (rommService *Service) State() service.State {
	switch {
	case rommService.loaded:
		return service.LOADED
	case rommService.IsAuthenticated():
		return service.AUTHENTICATED
	case rommService.IsConfigured():
		return service.CONFIGURED
	default:
		return service.UNCONFIGURED
	}
}

// Load fetches the whole RomM library and persists it. Records sharing a
// display name collapse into the first occurrence.
func (rommService *Service) Load(ctx context.Context) (games []entity.ServiceGame, err error) {
	var library []json.RawMessage
	if library, err = rommService.getLibrary(ctx); err != nil {
		err = fmt.Errorf("failed to get RomM library, try logging out and back in: %w", err)
		return
	}
	if len(library) == libraryPageLimit {
		logrus.Warnf("%s: library hit the %d entries page limit, it may be truncated", ServiceID, libraryPageLimit)
	}
	seen := map[string]bool{}
	for _, rawGame := range library {
		var game rommGame
		if err = json.Unmarshal(rawGame, &game); err != nil {
			err = fmt.Errorf("decoding library entry: %w", err)
			games = nil
			return
		}
		if seen[game.Name] {
			continue
		}
		seen[game.Name] = true
		games = append(games, entity.ServiceGame{
			Service: ServiceID,
			AppID:   game.ID.String(),
			Slug:    game.Slug,
			Name:    game.Name,
			Details: string(rawGame),
		})
	}
	for index := range games {
		if err = rommService.databaseEngine.StoreServiceGame(ctx, &games[index]); err != nil {
			err = fmt.Errorf("storing service game %q: %w", games[index].Name, err)
			games = nil
			return
		}
	}
	rommService.loaded = true
	return
}

// InstallerDetails decodes the upstream record persisted with a game, the
// raw material for building an installer.
func (rommService *Service) InstallerDetails(game entity.ServiceGame) (details map[string]interface{}, err error) {
	err = json.Unmarshal([]byte(game.Details), &details)
	return
}

// getLibrary pulls the roms listing, name ordered, retrying transient
// failures a few times before giving up.
func (rommService *Service) getLibrary(ctx context.Context) (library []json.RawMessage, err error) {
	if !rommService.IsConfigured() {
		err = ErrNotConfigured
		return
	}
	var cookies []*http.Cookie
	if cookies, err = rommService.session.Cookies(); err != nil {
		return
	}
	requestURL := fmt.Sprintf("%s/api/roms?order_by=name&order_dir=asc&limit=%d", rommService.host, libraryPageLimit)
	operation := func() error {
		return rommService.networkEngine.GetJSON(ctx, requestURL, cookies, &library)
	}
	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), libraryFetchRetries), ctx))
	return
}
