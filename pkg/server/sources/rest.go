package sources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/version"
)

// restStrategy supplies the shared GET request building and HTTP status
// classification used by every JSON REST source. Per-source strategies embed
// it and add their own descriptor defaults and normalization.
type restStrategy struct{}

// BuildRequest resolves the descriptor into a single GET request with its
// static query parameters and headers applied.
func (restStrategy) BuildRequest(ctx context.Context, desc Descriptor) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if len(desc.Params) > 0 {
		q := req.URL.Query()
		for k, v := range desc.Params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	for k, v := range desc.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", version.AgentString())

	return req, nil
}

// ClassifyStatus treats any 2xx as a usable payload and everything else as
// a transient HTTP failure with the status preserved.
func (restStrategy) ClassifyStatus(status int) *FetchError {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}
	return &FetchError{
		Kind:    KindHTTP,
		Status:  status,
		Message: fmt.Sprintf("unexpected status code: %d", status),
	}
}
