package adapter

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

// assertDocumentCID checks that s is the CID of a dag-json document.
func assertDocumentCID(t *testing.T, s string) {
	t.Helper()
	c, err := cid.Decode(s)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, c.Prefix().Version, qt.Equals, uint64(1))
	qt.Check(t, c.Prefix().Codec, qt.Equals, uint64(0x0129))
	qt.Check(t, c.Prefix().MhType, qt.Equals, uint64(0x12))
}

func TestEncodeJSON(t *testing.T) {
	for _, tt := range []struct {
		testCase string
		serial   string
		expect   string
	}{
		{"map", `{"b": "x", "a": 1}`, `{"b":"x","a":1}`},
		{"nested", `{"ref": "mem://x", "contents": {"rooms": [1, 2]}}`, `{"ref":"mem://x","contents":{"rooms":[1,2]}}`},
		{"string", `"Hotel Dream"`, `"Hotel Dream"`},
		{"number", `12`, `12`},
		{"null", `null`, `null`},
	} {
		t.Run(tt.testCase, func(t *testing.T) {
			n, err := DecodeJSON([]byte(tt.serial))
			qt.Assert(t, err, qt.IsNil)
			serial, err := EncodeJSON(n)
			qt.Assert(t, err, qt.IsNil)
			qt.Check(t, string(serial), qt.Equals, tt.expect)
		})
	}
}

func TestDecodeByName(t *testing.T) {
	n, err := DecodeByName("docs/hotel.dag-json", []byte(`{"name": "Hotel Dream"}`))
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, n.Kind(), qt.Equals, datamodel.Kind_Map)

	_, err = DecodeByName("docs/hotel.cbor", []byte(`{`))
	qt.Check(t, serum.Code(err), qt.Equals, lvapi.ECodeSerialization)
}

func TestContentAddress(t *testing.T) {
	n, err := DecodeJSON([]byte(`{"name": "Hotel Dream"}`))
	qt.Assert(t, err, qt.IsNil)
	serial, c, err := contentAddress(n)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, string(serial), qt.Equals, `{"name":"Hotel Dream"}`)
	assertDocumentCID(t, c.String())
	s := c.String()
	qt.Check(t, docKey(s), qt.Equals, s[0:4]+"/"+s[4:7]+"/"+s)
}
