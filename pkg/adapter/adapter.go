// Package adapter maps uri schemes to content-store backends.
//
// A Registry is built once (usually from configuration, see RegistryFromConfig)
// and handed to every storage pointer that needs to download documents.
// Nothing in this package is process-global: two registries never share backends
// unless the caller registers the same backend value in both.
package adapter

import (
	"context"
	"strings"
	"sync"

	"github.com/facette/natsort"
	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/warptools/ledgerview/lvapi"
)

// Backend is a content store for one or more uri schemes.
type Backend interface {
	// Download fetches and decodes the document at uri.
	// A nil node with a nil error means the store holds an empty document.
	//
	// Errors:
	//
	//  - ledgerview-error-offchain-data-runtime -- when the uri is not addressable by this backend
	//  - ledgerview-error-io -- when the store fails to produce the document
	//  - ledgerview-error-serialization -- when the stored bytes are not a document
	Download(ctx context.Context, uri string) (datamodel.Node, error)

	// Upload stores a new document and returns its uri.
	//
	// Errors:
	//
	//  - ledgerview-error-offchain-data-runtime -- when the backend is read-only
	//  - ledgerview-error-io -- when the store rejects the write
	//  - ledgerview-error-serialization -- when the document cannot be encoded
	Upload(ctx context.Context, doc datamodel.Node) (string, error)

	// Update replaces the document at uri and returns the uri it now lives at.
	// Content-addressed backends return a new uri; others return uri unchanged.
	//
	// Errors:
	//
	//  - ledgerview-error-offchain-data-runtime -- when the backend is read-only
	//  - ledgerview-error-io -- when the store rejects the write
	//  - ledgerview-error-serialization -- when the document cannot be encoded
	Update(ctx context.Context, uri string, doc datamodel.Node) (string, error)
}

// Registry maps lower-cased uri schemes to backends.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register installs backend for scheme.  Schemes are case-insensitive.
//
// Errors:
//
//  - ledgerview-error-invalid -- when the scheme is empty, or already registered
func (r *Registry) Register(scheme string, backend Backend) error {
	scheme = strings.ToLower(scheme)
	if scheme == "" || backend == nil {
		return lvapi.ErrorInvalid("cannot register a backend without a scheme", [2]string{"scheme", scheme})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[scheme]; exists {
		return lvapi.ErrorInvalid("scheme is already registered", [2]string{"scheme", scheme})
	}
	r.backends[scheme] = backend
	return nil
}

// GetAdapter returns the backend registered for scheme.
// Callers usually pass the result of ParseScheme; the lookup lower-cases anyway.
//
// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when no backend handles the scheme
func (r *Registry) GetAdapter(scheme string) (Backend, error) {
	scheme = strings.ToLower(scheme)
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[scheme]
	if !ok {
		return nil, lvapi.ErrorUnsupportedScheme(scheme)
	}
	return backend, nil
}

// ForURI parses the scheme of uri and returns its backend.
//
// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when the uri has no scheme, or no backend handles it
func (r *Registry) ForURI(uri string) (Backend, error) {
	scheme, err := ParseScheme(uri)
	if err != nil {
		return nil, err
	}
	return r.GetAdapter(scheme)
}

// Schemes lists the registered schemes in natural order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.backends))
	for scheme := range r.backends {
		result = append(result, scheme)
	}
	natsort.Sort(result)
	return result
}

// ParseScheme returns the lower-cased substring of uri preceding "://".
//
// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when uri has no scheme
func ParseScheme(uri string) (string, error) {
	schemeSplit := strings.SplitN(uri, "://", 2)
	if len(schemeSplit) < 2 || schemeSplit[0] == "" {
		return "", lvapi.ErrorOffChainData("cannot determine data storage type: uri has no scheme", uri)
	}
	return strings.ToLower(schemeSplit[0]), nil
}

// trimScheme returns what follows "://" in uri.
func trimScheme(uri string) string {
	schemeSplit := strings.SplitN(uri, "://", 2)
	if len(schemeSplit) < 2 {
		return uri
	}
	return schemeSplit[1]
}
