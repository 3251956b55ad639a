package adapter

import (
	"context"
	"io/fs"
	"strings"

	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/warpfork/go-fsx"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/logging"
)

const FileScheme = "file"

// FileStore serves "file://<path>" documents out of a filesystem.
// Paths are taken relative to the filesystem root, so "file:///docs/a.json"
// and "file://docs/a.json" name the same file.
// It is read-only.
type FileStore struct {
	fsys fsx.FS // Usually `osfs.DirFS("/")` when live, but may vary for tests.
}

func NewFileStore(fsys fsx.FS) *FileStore {
	return &FileStore{fsys: fsys}
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when uri names no regular file
//  - ledgerview-error-io -- when reading the file fails
//  - ledgerview-error-serialization -- when the file does not decode
func (s *FileStore) Download(ctx context.Context, uri string) (datamodel.Node, error) {
	name := strings.TrimLeft(trimScheme(uri), "/")
	if isFile, _ := fsx.IsPathFile(s.fsys, name); !isFile {
		return nil, lvapi.ErrorOffChainData("no such file", uri)
	}
	serial, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, lvapi.ErrorIo("failed to read document", name, err)
	}
	logging.Ctx(ctx).Debug("file", "read %d bytes from %s", len(serial), name)
	return DecodeByName(name, serial)
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- always; the file store is read-only
func (s *FileStore) Upload(ctx context.Context, doc datamodel.Node) (string, error) {
	return "", lvapi.ErrorOffChainData("file storage is read-only", FileScheme+"://")
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- always; the file store is read-only
func (s *FileStore) Update(ctx context.Context, uri string, doc datamodel.Node) (string, error) {
	return "", lvapi.ErrorOffChainData("file storage is read-only", uri)
}
