package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"arkhive.dev/hearth/internal/network/resources"
	"arkhive.dev/hearth/pkg/eventemitter"
	"github.com/sirupsen/logrus"
)

type NetworkEngine struct {
	client *http.Client

	// Event emitters
	BootedEventEmitter *eventemitter.EventEmitter[bool]
}

func NewNetworkEngine(requestTimeout time.Duration) (instance *NetworkEngine) {
	instance = &NetworkEngine{
		client:             &http.Client{Timeout: requestTimeout},
		BootedEventEmitter: &eventemitter.EventEmitter[bool]{},
	}
	return
}

func (networkEngine *NetworkEngine) Initialize(waitGroup *sync.WaitGroup) {
	logrus.Info("Network engine ready")
	networkEngine.BootedEventEmitter.Emit(true)
	waitGroup.Done()
}

// GetJSON issues a GET with the given session cookies attached and decodes
// the JSON response body into value. Responses with an error status are
// reported as errors, never decoded.
func (networkEngine *NetworkEngine) GetJSON(ctx context.Context, rawURL string, cookies []*http.Cookie, value interface{}) (err error) {
	var request *http.Request
	if request, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil); err != nil {
		return
	}
	request.Header.Set("Accept", "application/json")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	var response *http.Response
	if response, err = networkEngine.client.Do(request); err != nil {
		return
	}
	defer response.Body.Close()
	if response.StatusCode >= http.StatusBadRequest {
		err = fmt.Errorf("unexpected status %s requesting %s", response.Status, rawURL)
		return
	}
	if err = json.NewDecoder(response.Body).Decode(value); err != nil {
		err = fmt.Errorf("decoding response of %s: %w", rawURL, err)
		return
	}
	return
}

// DownloadFile fetches rawURL into destinationPath. Only web URLs are
// accepted.
func (networkEngine *NetworkEngine) DownloadFile(ctx context.Context, rawURL string, destinationPath string) (resource *resources.Resource, err error) {
	var parsedURL *url.URL
	if parsedURL, err = url.Parse(rawURL); err != nil {
		return
	}
	switch parsedURL.Scheme {
	case "http", "https":
	default:
		err = errors.New("url schema not allowed")
		return
	}
	resource = resources.NewResource(&resources.HTTPResource{
		URL:    *parsedURL,
		Client: networkEngine.client,
	}, destinationPath)
	if err = resource.Download(ctx); err != nil {
		return
	}
	logrus.Debugf("%s: downloaded %d bytes", rawURL, resource.Available)
	return
}
