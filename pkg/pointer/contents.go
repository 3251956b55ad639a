package pointer

import (
	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/warptools/ledgerview/lvapi"
)

// Contents is a downloaded document seen through its schema.
//
// Every entry of the document appears once, in document order.
// Entries the schema declares as pointers hold child Pointers instead of their raw uri;
// nested entries hold a PointerMap.  Everything else is the raw node.
// Optional pointer fields missing from the document are simply absent.
type Contents struct {
	fields []Field
	index  map[string]int
}

// Field is one entry of Contents.  Exactly one of Plain, Pointer, and Nested is set.
type Field struct {
	Name    string
	Plain   datamodel.Node
	Pointer *Pointer
	Nested  *PointerMap
}

// PointerMap holds the children of a nested field.
// Keys keeps document order.
type PointerMap struct {
	Keys   []string
	Values map[string]*Pointer
}

// Keys lists field names in document order.
func (c *Contents) Keys() []string {
	keys := make([]string, len(c.fields))
	for i, f := range c.fields {
		keys[i] = f.Name
	}
	return keys
}

// Fields returns all fields in document order.
func (c *Contents) Fields() []Field {
	return c.fields
}

func (c *Contents) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

func (c *Contents) Lookup(name string) (Field, bool) {
	i, ok := c.index[name]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Plain returns the raw value of a field that is not a pointer, or nil.
func (c *Contents) Plain(name string) datamodel.Node {
	f, _ := c.Lookup(name)
	return f.Plain
}

// Pointer returns the child pointer of a pointer field, or nil.
func (c *Contents) Pointer(name string) *Pointer {
	f, _ := c.Lookup(name)
	return f.Pointer
}

// Nested returns the children of a nested field, or nil.
func (c *Contents) Nested(name string) *PointerMap {
	f, _ := c.Lookup(name)
	return f.Nested
}

// NestedKeys lists the entry keys of a nested field in document order, or nil.
func (c *Contents) NestedKeys(name string) []string {
	if m := c.Nested(name); m != nil {
		return m.Keys
	}
	return nil
}

func (c *Contents) add(f Field) {
	c.index[f.Name] = len(c.fields)
	c.fields = append(c.fields, f)
}

// project applies the schema to a raw document.
// Declared fields are checked in schema order first, so the error for a bad document
// does not depend on how the document happens to order its entries.
func (p *Pointer) project(raw datamodel.Node) (*Contents, error) {
	if raw == nil || raw.IsNull() || raw.IsAbsent() {
		raw = emptyMap
	}
	if raw.Kind() != datamodel.Kind_Map {
		return nil, lvapi.ErrorDocumentShape(p.ref, raw.Kind().String())
	}

	declared := make(map[string]field, len(p.fields))
	for _, f := range p.fields {
		declared[f.name] = f
		v, err := raw.LookupByString(f.name)
		if err != nil || v.IsAbsent() || v.IsNull() {
			if f.required {
				return nil, lvapi.ErrorFieldRequired(p.ref, f.name)
			}
			continue
		}
		if err := p.checkShape(f, v); err != nil {
			return nil, err
		}
	}

	c := &Contents{index: make(map[string]int, raw.Length())}
	itr := raw.MapIterator()
	for !itr.Done() {
		k, v, err := itr.Next()
		if err != nil {
			return nil, lvapi.ErrorSerialization("failed to iterate document "+p.ref, err)
		}
		name, err := k.AsString()
		if err != nil {
			return nil, lvapi.ErrorSerialization("failed to read key in document "+p.ref, err)
		}
		f, isDeclared := declared[name]
		switch {
		case !isDeclared || !f.isPointer():
			c.add(Field{Name: name, Plain: v})
		case v.IsNull():
			// optional, and already checked above
		case f.nested:
			children, err := p.nestedChildren(f, v)
			if err != nil {
				return nil, err
			}
			c.add(Field{Name: name, Nested: children})
		default:
			uri, _ := v.AsString()
			child, err := New(p.reg, uri, *f.children)
			if err != nil {
				return nil, err
			}
			c.add(Field{Name: name, Pointer: child})
		}
	}
	return c, nil
}

func (p *Pointer) checkShape(f field, v datamodel.Node) error {
	switch {
	case f.nested:
		if v.Kind() != datamodel.Kind_Map {
			return lvapi.ErrorFieldShape(p.ref, f.name, "map")
		}
		itr := v.MapIterator()
		for !itr.Done() {
			k, entry, err := itr.Next()
			if err != nil {
				return lvapi.ErrorSerialization("failed to iterate field "+f.name, err)
			}
			if entry.Kind() != datamodel.Kind_String {
				key, _ := k.AsString()
				return lvapi.ErrorFieldShape(p.ref, f.name+"."+key, "string")
			}
		}
	case f.children != nil:
		if v.Kind() != datamodel.Kind_String {
			return lvapi.ErrorFieldShape(p.ref, f.name, "string")
		}
	}
	return nil
}

func (p *Pointer) nestedChildren(f field, v datamodel.Node) (*PointerMap, error) {
	result := &PointerMap{Values: make(map[string]*Pointer, v.Length())}
	itr := v.MapIterator()
	for !itr.Done() {
		k, entry, err := itr.Next()
		if err != nil {
			return nil, lvapi.ErrorSerialization("failed to iterate field "+f.name, err)
		}
		key, err := k.AsString()
		if err != nil {
			return nil, lvapi.ErrorSerialization("failed to read key in field "+f.name, err)
		}
		uri, _ := entry.AsString()
		child, err := New(p.reg, uri, lvapi.FieldSchema{})
		if err != nil {
			return nil, err
		}
		result.Keys = append(result.Keys, key)
		result.Values[key] = child
	}
	return result, nil
}
