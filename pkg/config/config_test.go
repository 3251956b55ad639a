package config

import (
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

func TestFindConfig(t *testing.T) {
	fsys := fstest.MapFS{
		"home/user/.ledgerview.json":             {Data: []byte(`{"mem": {}}`)},
		"home/user/project/src/main.go":          {Data: []byte("package main")},
		"home/user/other/.ledgerview.json":       {Data: []byte(`{}`)},
		"home/user/other/deeper/still/README.md": {Data: []byte("hi")},
	}
	for _, tt := range []struct {
		testCase   string
		basis      string
		searchPath string
		expect     string
	}{
		{"found above", "", "home/user/project/src", "home/user/.ledgerview.json"},
		{"nearest wins", "", "home/user/other/deeper/still", "home/user/other/.ledgerview.json"},
		{"found here", "", "home/user", "home/user/.ledgerview.json"},
		{"not found", "", "home", ""},
		{"not above basis", "home/user/project", "src", ""},
	} {
		t.Run(tt.testCase, func(t *testing.T) {
			path, err := FindConfig(fsys, tt.basis, tt.searchPath)
			qt.Assert(t, err, qt.IsNil)
			qt.Check(t, path, qt.Equals, tt.expect)
		})
	}
}

func TestAdapterConfig(t *testing.T) {
	fsys := fstest.MapFS{
		"srv/hotels/.ledgerview.json": {Data: []byte(`{"mem": {}, "file": {"root": "/srv/hotels/docs"}}`)},
		"etc/ledgerview.json":         {Data: []byte(`{"s3": {"region": "eu-central-1", "bucket": "hotels"}}`)},
		"etc/broken.json":             {Data: []byte(`{"s3": {"bucket": 7}}`)},
	}

	t.Run("found by search", func(t *testing.T) {
		cfg, err := AdapterConfig(fsys, State{Env: map[string]string{}, WorkingDirectory: "/srv/hotels/data"})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, cfg.Mem, qt.IsNotNil)
		qt.Assert(t, cfg.File, qt.IsNotNil)
		qt.Check(t, cfg.File.Root, qt.Equals, "/srv/hotels/docs")
		qt.Check(t, cfg.S3, qt.IsNil)
	})
	t.Run("explicit path wins", func(t *testing.T) {
		cfg, err := AdapterConfig(fsys, State{
			Env:              map[string]string{EnvLedgerviewConfig: "/etc/ledgerview.json"},
			WorkingDirectory: "/srv/hotels",
		})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, cfg.Mem, qt.IsNil)
		qt.Assert(t, cfg.S3, qt.IsNotNil)
		qt.Check(t, cfg.S3.Bucket, qt.Equals, "hotels")
	})
	t.Run("explicit path missing", func(t *testing.T) {
		_, err := AdapterConfig(fsys, State{Env: map[string]string{EnvLedgerviewConfig: "/etc/nope.json"}, WorkingDirectory: "/"})
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeIo)
	})
	t.Run("explicit path broken", func(t *testing.T) {
		_, err := AdapterConfig(fsys, State{Env: map[string]string{EnvLedgerviewConfig: "/etc/broken.json"}, WorkingDirectory: "/"})
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeSerialization)
	})
	t.Run("environment fallback", func(t *testing.T) {
		cfg, err := AdapterConfig(fsys, State{
			Env: map[string]string{
				EnvLedgerviewS3Region:   "eu-central-1",
				EnvLedgerviewS3Bucket:   "hotels",
				EnvLedgerviewS3Endpoint: "http://localhost:9000",
			},
			WorkingDirectory: "/var/lib",
		})
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, cfg.Mem, qt.IsNotNil)
		qt.Check(t, cfg.HTTP, qt.IsNotNil)
		qt.Check(t, cfg.File.Root, qt.Equals, "/var/lib")
		qt.Assert(t, cfg.S3, qt.IsNotNil)
		qt.Check(t, *cfg.S3.Endpoint, qt.Equals, "http://localhost:9000")
	})
}

func TestEnvAdapterConfig(t *testing.T) {
	cfg := EnvAdapterConfig(State{
		Env:              map[string]string{EnvLedgerviewFileRoot: "/data", EnvLedgerviewS3Bucket: "hotels"},
		WorkingDirectory: "/home/user",
	})
	qt.Check(t, cfg.File.Root, qt.Equals, "/data")
	// A bucket without a region is not enough.
	qt.Check(t, cfg.S3, qt.IsNil)
}

func TestNewStateIsACopy(t *testing.T) {
	a := NewState()
	a.Env["LEDGERVIEW_TEST_ONLY"] = "x"
	b := NewState()
	_, ok := b.Env["LEDGERVIEW_TEST_ONLY"]
	qt.Check(t, ok, qt.IsFalse)
	qt.Check(t, b.WorkingDirectory, qt.Not(qt.Equals), "")
}
