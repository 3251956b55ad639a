package pointer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/warptools/ledgerview/pkg/adapter"
)

// docBackend serves fixed JSON documents keyed by their full uri,
// and counts how often each uri is requested.
type docBackend struct {
	mu    sync.Mutex
	docs  map[string]string
	calls map[string]int
	total int
	fail  error
	gate  chan struct{} // when non-nil, downloads block until it is closed
}

func newDocBackend(docs map[string]string) *docBackend {
	return &docBackend{docs: docs, calls: make(map[string]int)}
}

func (b *docBackend) Download(ctx context.Context, uri string) (datamodel.Node, error) {
	b.mu.Lock()
	b.calls[uri]++
	b.total++
	gate, fail := b.gate, b.fail
	serial, ok := b.docs[uri]
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail != nil {
		return nil, fail
	}
	if !ok {
		return nil, fmt.Errorf("no document at %s", uri)
	}
	return adapter.DecodeJSON([]byte(serial))
}

func (b *docBackend) Upload(ctx context.Context, doc datamodel.Node) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (b *docBackend) Update(ctx context.Context, uri string, doc datamodel.Node) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (b *docBackend) Calls(uri string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[uri]
}

func (b *docBackend) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *docBackend) setFail(err error) {
	b.mu.Lock()
	b.fail = err
	b.mu.Unlock()
}

func registryWith(t *testing.T, scheme string, backend adapter.Backend) *adapter.Registry {
	t.Helper()
	reg := adapter.NewRegistry()
	qt.Assert(t, reg.Register(scheme, backend), qt.IsNil)
	return reg
}

func mustJSON(t *testing.T, serial string) datamodel.Node {
	t.Helper()
	n, err := adapter.DecodeJSON([]byte(serial))
	qt.Assert(t, err, qt.IsNil)
	return n
}

// assertNodeEquals compares nodes in order, and shows both as JSON when they differ.
func assertNodeEquals(t *testing.T, actual, expect datamodel.Node) {
	t.Helper()
	if datamodel.DeepEqual(actual, expect) {
		return
	}
	a, _ := adapter.EncodeJSON(actual)
	e, _ := adapter.EncodeJSON(expect)
	qt.Assert(t, string(a), qt.Equals, string(e))
}
