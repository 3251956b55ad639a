package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/warptools/ledgerview/lvapi"
)

// DefaultConfigFilename is the name of adapter config files found by searching.
const DefaultConfigFilename = ".ledgerview.json"

// FindConfig looks for an adapter config file on the filesystem and returns the first one found,
// searching directories upward.
//
// It searches from `join(basisPath,searchPath)` up to `basisPath`
// (in other words, it won't search above basisPath).
// Invoking it with an empty string for `basisPath` and cwd for `searchPath` is typical.
//
// If no config file is found, it returns an empty path and a nil error.
//
// An fsys handle is required, but is typically `os.DirFS("/")` outside of tests.
//
// Errors:
//
//   - ledgerview-error-searching-filesystem -- when an unexpected error occurs traversing the search path
func FindConfig(fsys fs.FS, basisPath, searchPath string) (string, error) {
	searchAt := searchPath
	for {
		path := filepath.Join(basisPath, searchAt, DefaultConfigFilename)
		_, err := fs.Stat(fsys, path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			searchAt = filepath.Dir(searchAt)
			if searchAt == "/" || searchAt == "." {
				return "", nil
			}
			continue
		}
		return "", lvapi.ErrorSearchingFilesystem("adapter config", err)
	}
}

// AdapterConfig works out which backends to configure.
//
// The first of these that exists is used:
// the file named by LEDGERVIEW_CONFIG, then the nearest .ledgerview.json above the
// working directory, then a config built from the other environment variables.
// Paths are resolved within fsys, which is typically `os.DirFS("/")`.
//
// Errors:
//
//   - ledgerview-error-io -- when the config file cannot be read
//   - ledgerview-error-serialization -- when the config file is not a valid adapter config
//   - ledgerview-error-searching-filesystem -- when searching for a config file fails
func AdapterConfig(fsys fs.FS, state State) (lvapi.AdapterConfig, error) {
	path, explicit := state.Env[EnvLedgerviewConfig]
	if !explicit {
		found, err := FindConfig(fsys, "", relative(state.WorkingDirectory))
		if err != nil {
			return lvapi.AdapterConfig{}, err
		}
		if found == "" {
			return EnvAdapterConfig(state), nil
		}
		path = found
	}
	serial, err := fs.ReadFile(fsys, relative(path))
	if err != nil {
		return lvapi.AdapterConfig{}, lvapi.ErrorIo("failed to read adapter config", path, err)
	}
	return lvapi.ParseAdapterConfig(serial)
}

// EnvAdapterConfig builds an adapter config from environment variables alone.
// The mem, file, and http backends are always enabled; s3 only when a region and bucket are set.
func EnvAdapterConfig(state State) lvapi.AdapterConfig {
	root, ok := state.Env[EnvLedgerviewFileRoot]
	if !ok {
		root = state.WorkingDirectory
	}
	cfg := lvapi.AdapterConfig{
		Mem:  &lvapi.MemAdapterConfig{},
		File: &lvapi.FileAdapterConfig{Root: root},
		HTTP: &lvapi.HTTPAdapterConfig{},
	}
	region, hasRegion := state.Env[EnvLedgerviewS3Region]
	bucket, hasBucket := state.Env[EnvLedgerviewS3Bucket]
	if hasRegion && hasBucket {
		cfg.S3 = &lvapi.S3AdapterConfig{Region: region, Bucket: bucket}
		if endpoint, ok := state.Env[EnvLedgerviewS3Endpoint]; ok {
			cfg.S3.Endpoint = &endpoint
		}
	}
	return cfg
}

// relative strips the leading slash so absolute paths can be used within an fs.FS rooted at "/".
func relative(path string) string {
	return strings.TrimPrefix(filepath.Clean(path), "/")
}
