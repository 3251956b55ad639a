package adapter

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

func TestParseScheme(t *testing.T) {
	for _, tt := range []struct {
		testCase string
		input    string
		output   string
		errCode  string
	}{
		{"lower", "mem://bafy", "mem", ""},
		{"upper", "MEM://bafy", "mem", ""},
		{"mixed", "Https://example.com/a.json", "https", ""},
		{"no separator", "bafy", "", lvapi.ECodeOffChainDataRuntime},
		{"empty scheme", "://bafy", "", lvapi.ECodeOffChainDataRuntime},
		{"empty", "", "", lvapi.ECodeOffChainDataRuntime},
	} {
		t.Run(tt.testCase, func(t *testing.T) {
			result, err := ParseScheme(tt.input)
			qt.Check(t, result, qt.Equals, tt.output)
			if tt.errCode == "" {
				qt.Check(t, err, qt.IsNil)
			} else {
				qt.Check(t, serum.Code(err), qt.Equals, tt.errCode)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	mem := NewMemStore()
	qt.Assert(t, reg.Register("MEM", mem), qt.IsNil)
	qt.Assert(t, reg.Register("file", NewFileStore(nil)), qt.IsNil)

	t.Run("duplicate", func(t *testing.T) {
		err := reg.Register("mem", NewMemStore())
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeInvalid)
	})
	t.Run("empty scheme", func(t *testing.T) {
		err := reg.Register("", NewMemStore())
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeInvalid)
	})
	t.Run("lookup is case-insensitive", func(t *testing.T) {
		for _, scheme := range []string{"mem", "MEM", "Mem"} {
			backend, err := reg.GetAdapter(scheme)
			qt.Assert(t, err, qt.IsNil)
			qt.Check(t, backend, qt.Equals, Backend(mem))
		}
	})
	t.Run("unsupported", func(t *testing.T) {
		_, err := reg.GetAdapter("ftp")
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeOffChainDataRuntime)
		qt.Check(t, serum.Details(err), qt.DeepEquals, [][2]string{{"scheme", "ftp"}})
	})
	t.Run("for uri", func(t *testing.T) {
		backend, err := reg.ForURI("MeM://anything")
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, backend, qt.Equals, Backend(mem))
		_, err = reg.ForURI("anything")
		qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeOffChainDataRuntime)
	})
	t.Run("schemes", func(t *testing.T) {
		qt.Check(t, reg.Schemes(), qt.DeepEquals, []string{"file", "mem"})
	})
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	qt.Assert(t, a.Register("mem", NewMemStore()), qt.IsNil)
	_, err := b.GetAdapter("mem")
	qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeOffChainDataRuntime)
}

func TestRegistryFromConfig(t *testing.T) {
	ctx := context.Background()
	reg, err := RegistryFromConfig(ctx, lvapi.AdapterConfig{
		Mem:  &lvapi.MemAdapterConfig{},
		File: &lvapi.FileAdapterConfig{Root: t.TempDir()},
		HTTP: &lvapi.HTTPAdapterConfig{},
	})
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, reg.Schemes(), qt.DeepEquals, []string{"file", "http", "https", "mem"})
}

func mustDecode(t *testing.T, serial string) datamodel.Node {
	t.Helper()
	n, err := DecodeJSON([]byte(serial))
	qt.Assert(t, err, qt.IsNil)
	return n
}
