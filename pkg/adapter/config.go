package adapter

import (
	"context"
	"time"

	"github.com/warpfork/go-fsx/osfs"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/logging"
)

// RegistryFromConfig builds a registry with one backend per configured member:
// "mem", "file", "http" and "https", "s3".
//
// Errors:
//
//  - ledgerview-error-internal -- when a backend's client cannot be set up
//  - ledgerview-error-io -- when an S3 bucket cannot be accessed
func RegistryFromConfig(ctx context.Context, cfg lvapi.AdapterConfig) (*Registry, error) {
	log := logging.Ctx(ctx)
	reg := NewRegistry()
	// Register only fails on duplicate schemes, which a single config cannot produce.
	if cfg.Mem != nil {
		reg.Register(MemScheme, NewMemStore())
	}
	if cfg.File != nil {
		log.Debug("adapter", "file storage rooted at %q", cfg.File.Root)
		reg.Register(FileScheme, NewFileStore(osfs.DirFS(cfg.File.Root)))
	}
	if cfg.HTTP != nil {
		var timeout time.Duration
		if cfg.HTTP.TimeoutSeconds != nil {
			timeout = time.Duration(*cfg.HTTP.TimeoutSeconds) * time.Second
		}
		store := NewHTTPStore(nil, timeout)
		reg.Register("http", store)
		reg.Register("https", store)
	}
	if cfg.S3 != nil {
		store, err := NewS3Store(ctx, *cfg.S3)
		if err != nil {
			return nil, err
		}
		reg.Register(S3Scheme, store)
	}
	log.Debug("adapter", "registered schemes: %v", reg.Schemes())
	return reg, nil
}
