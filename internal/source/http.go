package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/detarget/internal/core"
)

// HTTPSource fetches the resource with a single GET.
type HTTPSource struct {
	URL    *url.URL
	Client *http.Client
}

// Fetch issues the GET. 404 and 410 are not-found; any other non-2xx
// status is a fetch failure.
func (h *HTTPSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "text/csv, */*;q=0.5")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFetchFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %s", core.ErrResourceNotFound, h.Locator(), resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %s", core.ErrFetchFailed, h.Locator(), resp.Status)
	}
	return resp.Body, nil
}

// Locator returns the URL without credentials.
func (h *HTTPSource) Locator() string {
	return h.URL.Redacted()
}
