package adapter

import (
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

func TestMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	doc := mustDecode(t, `{"name": "Hotel Dream", "stars": 4}`)

	uri, err := store.Upload(ctx, doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, strings.HasPrefix(uri, "mem://"), qt.IsTrue)
	assertDocumentCID(t, strings.TrimPrefix(uri, "mem://"))

	t.Run("content addressed", func(t *testing.T) {
		again, err := store.Upload(ctx, mustDecode(t, `{"name": "Hotel Dream", "stars": 4}`))
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, again, qt.Equals, uri)
	})

	t.Run("download", func(t *testing.T) {
		n, err := store.Download(ctx, uri)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, datamodel.DeepEqual(n, doc), qt.IsTrue)
		qt.Check(t, store.Downloads(uri), qt.Equals, 1)
	})

	t.Run("update moves the document", func(t *testing.T) {
		updated, err := store.Update(ctx, uri, mustDecode(t, `{"name": "Hotel Dream", "stars": 5}`))
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, updated, qt.Not(qt.Equals), uri)
		n, err := store.Download(ctx, updated)
		qt.Assert(t, err, qt.IsNil)
		stars, err := n.LookupByString("stars")
		qt.Assert(t, err, qt.IsNil)
		v, err := stars.AsInt()
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, v, qt.Equals, int64(5))
	})
}

func TestMemStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	_, err := store.Download(ctx, "mem://not-a-cid")
	qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeOffChainDataRuntime)

	// A well-formed CID that nobody stored.
	_, err = store.Download(ctx, "mem://bafyreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy")
	qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeIo)

	_, err = store.Update(ctx, "mem://nope", mustDecode(t, `{}`))
	qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeOffChainDataRuntime)
}
