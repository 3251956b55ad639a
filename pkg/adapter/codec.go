package adapter

import (
	"bytes"
	"path"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/codec/json"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	rfmtjson "github.com/polydawn/refmt/json"

	"github.com/warptools/ledgerview/lvapi"
)

// documentLinkPrototype is how content-addressed backends name documents:
// CIDv1, dag-json, sha2-256.
var documentLinkPrototype = cidlink.LinkPrototype{Prefix: cid.Prefix{
	Version:  1,
	Codec:    0x0129, // dag-json
	MhType:   0x12,   // sha2-256
	MhLength: 32,
}}

// DecodeJSON parses a JSON document into a data model node.
//
// Errors:
//
//  - ledgerview-error-serialization -- when serial is not JSON
func DecodeJSON(serial []byte) (datamodel.Node, error) {
	n, err := ipld.Decode(serial, json.Decode)
	if err != nil {
		return nil, lvapi.ErrorSerialization("failed to decode json document", err)
	}
	return n, nil
}

// EncodeJSON is the inverse of DecodeJSON.
// The output is compact, on one line with no trailing newline, and keeps map entry order.
//
// Errors:
//
//  - ledgerview-error-serialization -- when n holds data JSON cannot carry (links, bytes)
func EncodeJSON(n datamodel.Node) ([]byte, error) {
	var buf bytes.Buffer
	err := dagjson.Marshal(n, rfmtjson.NewEncoder(&buf, rfmtjson.EncodeOptions{}), dagjson.EncodeOptions{
		EncodeLinks: false,
		EncodeBytes: false,
		MapSortMode: codec.MapSortMode_None,
	})
	if err != nil {
		return nil, lvapi.ErrorSerialization("failed to encode json document", err)
	}
	return buf.Bytes(), nil
}

// DecodeByName picks a codec from the file extension in name:
// ".cbor" is dag-cbor, ".dag-json" is dag-json, everything else is plain JSON.
//
// Errors:
//
//  - ledgerview-error-serialization -- when serial does not parse with the chosen codec
func DecodeByName(name string, serial []byte) (datamodel.Node, error) {
	var n datamodel.Node
	var err error
	switch strings.ToLower(path.Ext(name)) {
	case ".cbor":
		n, err = ipld.Decode(serial, dagcbor.Decode)
	case ".dag-json":
		n, err = ipld.Decode(serial, dagjson.Decode)
	default:
		return DecodeJSON(serial)
	}
	if err != nil {
		return nil, lvapi.ErrorSerialization("failed to decode "+name, err)
	}
	return n, nil
}

// contentAddress encodes doc as dag-json and returns the bytes with their CID.
func contentAddress(doc datamodel.Node) ([]byte, cid.Cid, error) {
	serial, err := ipld.Encode(doc, dagjson.Encode)
	if err != nil {
		return nil, cid.Undef, lvapi.ErrorSerialization("failed to encode document", err)
	}
	c, err := documentLinkPrototype.Prefix.Sum(serial)
	if err != nil {
		return nil, cid.Undef, lvapi.ErrorSerialization("failed to hash document", err)
	}
	return serial, c, nil
}
