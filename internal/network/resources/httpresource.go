package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// HTTPResource downloads a resource over HTTP, optionally within an
// authenticated session.
type HTTPResource struct {
	URL     url.URL
	Client  *http.Client
	Cookies []*http.Cookie
}

func (httpResource *HTTPResource) GetURL() url.URL {
	return httpResource.URL
}

func (httpResource *HTTPResource) Download(ctx context.Context, resource *Resource) (err error) {
	var request *http.Request
	if request, err = http.NewRequestWithContext(ctx, http.MethodGet, httpResource.URL.String(), nil); err != nil {
		return
	}
	for _, cookie := range httpResource.Cookies {
		request.AddCookie(cookie)
	}
	client := httpResource.Client
	if client == nil {
		client = http.DefaultClient
	}
	var response *http.Response
	if response, err = client.Do(request); err != nil {
		return
	}
	defer response.Body.Close()
	if response.StatusCode >= http.StatusBadRequest {
		err = fmt.Errorf("unexpected status %s fetching %s", response.Status, httpResource.URL.String())
		return
	}
	resource.Total = response.ContentLength
	return resource.Save(response.Body)
}
