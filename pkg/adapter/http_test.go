package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

func TestHTTPStore(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("/hotel.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name": "Hotel Dream"}`))
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewHTTPStore(srv.Client(), 0)

	t.Run("ok", func(t *testing.T) {
		n, err := store.Download(ctx, srv.URL+"/hotel.json")
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, datamodel.DeepEqual(n, mustDecode(t, `{"name": "Hotel Dream"}`)), qt.IsTrue)
	})
	t.Run("not found", func(t *testing.T) {
		_, err := store.Download(ctx, srv.URL+"/motel.json")
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeIo)
	})
	t.Run("not json", func(t *testing.T) {
		_, err := store.Download(ctx, srv.URL+"/garbage")
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeSerialization)
	})
	t.Run("read-only", func(t *testing.T) {
		_, err := store.Upload(ctx, mustDecode(t, `{}`))
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeOffChainDataRuntime)
	})
}
