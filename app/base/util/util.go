package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/urfave/cli/v2"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/adapter"
	"github.com/warptools/ledgerview/pkg/config"
)

// Registry builds the adapter registry for a command from the process configuration.
//
// Errors:
//
//   - ledgerview-error-io -- when a config file cannot be read, or an S3 bucket cannot be accessed
//   - ledgerview-error-serialization -- when a config file is not a valid adapter config
//   - ledgerview-error-searching-filesystem -- when searching for a config file fails
//   - ledgerview-error-internal -- when a backend's client cannot be set up
func Registry(c *cli.Context) (*adapter.Registry, error) {
	cfg, err := config.AdapterConfig(os.DirFS("/"), config.NewState())
	if err != nil {
		return nil, err
	}
	return adapter.RegistryFromConfig(c.Context, cfg)
}

// ReadFile reads a file named on the command line, relative to the working directory.
//
// Errors:
//
//   - ledgerview-error-io -- when the file cannot be read
func ReadFile(filename string) ([]byte, error) {
	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(config.NewState().WorkingDirectory, path)
	}
	fsys := os.DirFS("/")
	serial, err := fs.ReadFile(fsys, strings.TrimPrefix(filepath.Clean(path), "/"))
	if err != nil {
		return nil, lvapi.ErrorIo("cannot read file", filename, err)
	}
	return serial, nil
}

// LoadSchema reads a field schema file.  An empty name gives the empty schema.
//
// Errors:
//
//   - ledgerview-error-io -- when the file cannot be read
//   - ledgerview-error-serialization -- when the file is not a field schema
func LoadSchema(filename string) (lvapi.FieldSchema, error) {
	if filename == "" {
		return lvapi.FieldSchema{}, nil
	}
	serial, err := ReadFile(filename)
	if err != nil {
		return lvapi.FieldSchema{}, err
	}
	return lvapi.ParseFieldSchema(serial)
}

// LoadDocument reads a document file, choosing the codec by file extension.
//
// Errors:
//
//   - ledgerview-error-io -- when the file cannot be read
//   - ledgerview-error-serialization -- when the file does not parse
func LoadDocument(filename string) (datamodel.Node, error) {
	serial, err := ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return adapter.DecodeByName(filename, serial)
}
