package lvapi

import (
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"
)

// FieldSchema declares the fields of an off-ledger document that need more than
// a verbatim copy: required fields, pointers to further documents, and nested
// maps of pointers.  Fields the schema does not mention pass through untouched.
//
// Keys keeps declaration order; Values is indexed by field name.
type FieldSchema struct {
	Keys   []string
	Values map[string]FieldSpec
}

// FieldSpec is one declared field.
// A nil Required means required.  A nil Nested means not nested.
// A non-nil Children (even an empty one) makes the field a pointer:
// its raw value is a uri, and Children is the schema of the document behind it.
type FieldSpec struct {
	Required *bool
	Nested   *bool
	Children *FieldSchema
}

// FieldEntry pairs a field name with its spec, for building schemas in code.
type FieldEntry struct {
	Name string
	Spec FieldSpec
}

// NewFieldSchema builds a schema from entries, keeping their order.
// Later entries with the same exact name replace earlier ones;
// case-insensitive conflicts are left for the resolver to reject.
func NewFieldSchema(entries ...FieldEntry) FieldSchema {
	fs := FieldSchema{Values: make(map[string]FieldSpec, len(entries))}
	for _, e := range entries {
		if _, exists := fs.Values[e.Name]; !exists {
			fs.Keys = append(fs.Keys, e.Name)
		}
		fs.Values[e.Name] = e.Spec
	}
	return fs
}

// PlainField declares a required field that is copied verbatim.
func PlainField(name string) FieldEntry {
	return FieldEntry{Name: name}
}

// PointerField declares a required field whose value is a uri to a document shaped by children.
func PointerField(name string, children FieldSchema) FieldEntry {
	return FieldEntry{Name: name, Spec: FieldSpec{Children: &children}}
}

// NestedField declares a required field whose value is a map of uris, each a leaf document.
func NestedField(name string) FieldEntry {
	nested := true
	return FieldEntry{Name: name, Spec: FieldSpec{Nested: &nested}}
}

// Optional returns a copy of the entry that may be absent from documents.
func (e FieldEntry) Optional() FieldEntry {
	required := false
	e.Spec.Required = &required
	return e
}

func (fs FieldSchema) Len() int {
	return len(fs.Keys)
}

// IsRequired reports the effective value of Required.
func (spec FieldSpec) IsRequired() bool {
	return spec.Required == nil || *spec.Required
}

// IsNested reports the effective value of Nested.
func (spec FieldSpec) IsNested() bool {
	return spec.Nested != nil && *spec.Nested
}

// IsPointer reports whether the field's raw value is resolved further.
func (spec FieldSpec) IsPointer() bool {
	return spec.Children != nil || spec.IsNested()
}

// ParseFieldSchema decodes a schema from its JSON serial form, e.g.
//
//	{"descriptionUri": {"children": {"name": {}, "ratePlansUri": {"required": false, "children": {}}}}}
//
// Errors:
//
//   - ledgerview-error-serialization -- when the document does not match the FieldSchema type
func ParseFieldSchema(serial []byte) (FieldSchema, error) {
	fs := FieldSchema{}
	_, err := ipld.Unmarshal(serial, json.Decode, &fs, TypeSystem.TypeByName("FieldSchema"))
	if err != nil {
		return FieldSchema{}, ErrorSerialization("failed to deserialize field schema", err)
	}
	return fs, nil
}

// ParseAdapterConfig decodes an adapter configuration from its JSON serial form.
//
// Errors:
//
//   - ledgerview-error-serialization -- when the document does not match the AdapterConfig type
func ParseAdapterConfig(serial []byte) (AdapterConfig, error) {
	cfg := AdapterConfig{}
	_, err := ipld.Unmarshal(serial, json.Decode, &cfg, TypeSystem.TypeByName("AdapterConfig"))
	if err != nil {
		return AdapterConfig{}, ErrorSerialization("failed to deserialize adapter config", err)
	}
	return cfg, nil
}
