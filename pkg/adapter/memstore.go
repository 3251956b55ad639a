package adapter

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/linking"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/ipld/go-ipld-prime/storage/memstore"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/logging"
)

const MemScheme = "mem"

// MemStore is an in-process, content-addressed document store.
// Documents are kept as dag-json blocks and addressed as "mem://<cid>".
//
// It is what tests and examples use in place of a real off-ledger store,
// and it keeps per-uri download counts so callers can observe caching.
type MemStore struct {
	ls    linking.LinkSystem
	store *memstore.Store

	mu        sync.Mutex
	downloads map[string]int
}

func NewMemStore() *MemStore {
	store := &memstore.Store{}
	ls := cidlink.DefaultLinkSystem()
	ls.SetReadStorage(store)
	ls.SetWriteStorage(store)
	return &MemStore{
		ls:        ls,
		store:     store,
		downloads: make(map[string]int),
	}
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when uri is not a mem uri with a valid CID
//  - ledgerview-error-io -- when no document is stored under the uri
func (m *MemStore) Download(ctx context.Context, uri string) (datamodel.Node, error) {
	m.mu.Lock()
	m.downloads[uri]++
	m.mu.Unlock()

	c, err := m.parseURI(uri)
	if err != nil {
		return nil, err
	}
	n, err := m.ls.Load(linking.LinkContext{Ctx: ctx}, cidlink.Link{Cid: c}, basicnode.Prototype.Any)
	if err != nil {
		return nil, lvapi.ErrorIo("failed to load document", uri, err)
	}
	logging.Ctx(ctx).Debug("mem", "loaded %s", uri)
	return n, nil
}

// Errors:
//
//  - ledgerview-error-io -- when the block cannot be stored
func (m *MemStore) Upload(ctx context.Context, doc datamodel.Node) (string, error) {
	lnk, err := m.ls.Store(linking.LinkContext{Ctx: ctx}, documentLinkPrototype, doc)
	if err != nil {
		return "", lvapi.ErrorIo("failed to store document", MemScheme+"://", err)
	}
	return MemScheme + "://" + lnk.String(), nil
}

// Update stores doc as a new block.  The old block stays where it was;
// content addressing means the document's uri changes with its content.
//
// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when uri is not a mem uri
//  - ledgerview-error-io -- when the block cannot be stored
func (m *MemStore) Update(ctx context.Context, uri string, doc datamodel.Node) (string, error) {
	if _, err := m.parseURI(uri); err != nil {
		return "", err
	}
	return m.Upload(ctx, doc)
}

// Downloads reports how many times uri has been requested.
func (m *MemStore) Downloads(uri string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.downloads[uri]
}

func (m *MemStore) parseURI(uri string) (cid.Cid, error) {
	c, err := cid.Decode(trimScheme(uri))
	if err != nil {
		return cid.Undef, lvapi.ErrorOffChainData("invalid mem uri: "+err.Error(), uri)
	}
	return c, nil
}
