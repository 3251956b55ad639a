package adapter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

// fakeS3 answers the handful of path-style requests S3Store makes.
type fakeS3 struct {
	bucket  string
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := strings.TrimPrefix(r.URL.Path, "/")
	if p == f.bucket || p == f.bucket+"/" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if !strings.HasPrefix(p, f.bucket+"/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := strings.TrimPrefix(p, f.bucket+"/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>nope</Message></Error>`))
			return
		}
		w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T) (*S3Store, *fakeS3) {
	fake := &fakeS3{bucket: "docs", objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	store, err := NewS3Store(context.Background(), lvapi.S3AdapterConfig{
		Endpoint: aws.String(srv.URL),
		Region:   "us-east-1",
		Bucket:   "docs",
	}, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")))
	qt.Assert(t, err, qt.IsNil)
	return store, fake
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestS3Store(t)
	doc := mustDecode(t, `{"name": "Hotel Dream"}`)

	uri, err := store.Upload(ctx, doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, strings.HasPrefix(uri, "s3://docs/"), qt.IsTrue)
	qt.Assert(t, strings.HasSuffix(uri, ".dag-json"), qt.IsTrue)
	assertDocumentCID(t, path.Base(strings.TrimSuffix(uri, ".dag-json")))
	qt.Check(t, fake.objects, qt.HasLen, 1)

	n, err := store.Download(ctx, uri)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, datamodel.DeepEqual(n, doc), qt.IsTrue)

	t.Run("update in place", func(t *testing.T) {
		updated, err := store.Update(ctx, uri, mustDecode(t, `{"name": "Hotel Nightmare"}`))
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, updated, qt.Equals, uri)
		n, err := store.Download(ctx, uri)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, datamodel.DeepEqual(n, mustDecode(t, `{"name": "Hotel Nightmare"}`)), qt.IsTrue)
	})
	t.Run("missing object", func(t *testing.T) {
		_, err := store.Download(ctx, "s3://docs/nothing.json")
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeIo)
	})
}

func TestSplitS3URI(t *testing.T) {
	for _, tt := range []struct {
		input  string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://docs/a/b.json", "docs", "a/b.json", true},
		{"S3://docs/a", "docs", "a", true},
		{"s3://docs", "", "", false},
		{"s3://docs/", "", "", false},
		{"s3:///a", "", "", false},
	} {
		bucket, key, err := splitS3URI(tt.input)
		qt.Check(t, bucket, qt.Equals, tt.bucket)
		qt.Check(t, key, qt.Equals, tt.key)
		qt.Check(t, err == nil, qt.Equals, tt.ok)
	}
}
