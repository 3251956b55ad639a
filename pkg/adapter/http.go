package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/logging"
)

// HTTPStore downloads JSON documents over http and https.
// It is read-only.
type HTTPStore struct {
	client *http.Client
}

// NewHTTPStore returns a store using client, or a client with the given timeout when client is nil.
// A zero timeout means no timeout.
func NewHTTPStore(client *http.Client, timeout time.Duration) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPStore{client: client}
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when uri is not a valid request target
//  - ledgerview-error-io -- when the request fails or the response is not 2xx
//  - ledgerview-error-serialization -- when the body is not JSON
func (s *HTTPStore) Download(ctx context.Context, uri string) (datamodel.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, lvapi.ErrorOffChainData("invalid http uri: "+err.Error(), uri)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, lvapi.ErrorIo("request failed", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, lvapi.ErrorIo("request failed", uri, fmt.Errorf("unexpected status %q", resp.Status))
	}
	serial, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lvapi.ErrorIo("failed to read response body", uri, err)
	}
	logging.Ctx(ctx).Debug("http", "GET %s: %s, %d bytes", uri, resp.Status, len(serial))
	return DecodeJSON(serial)
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- always; http storage is read-only
func (s *HTTPStore) Upload(ctx context.Context, doc datamodel.Node) (string, error) {
	return "", lvapi.ErrorOffChainData("http storage is read-only", "https://")
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- always; http storage is read-only
func (s *HTTPStore) Update(ctx context.Context, uri string, doc datamodel.Node) (string, error) {
	return "", lvapi.ErrorOffChainData("http storage is read-only", uri)
}
