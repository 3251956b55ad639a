package remote

import (
	"reflect"

	"github.com/ipld/go-ipld-prime/datamodel"
)

// DefaultEqual compares IPLD nodes structurally, comparable values with ==,
// and anything else (slices, maps) with reflect.DeepEqual.
func DefaultEqual(a, b interface{}) bool {
	if an, ok := a.(datamodel.Node); ok {
		bn, ok := b.(datamodel.Node)
		return ok && datamodel.DeepEqual(an, bn)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
