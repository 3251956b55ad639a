/*
Package pointer resolves off-ledger documents lazily.

A Pointer wraps one uri and the schema of the document behind it.
Nothing is downloaded until Contents is called; the download is then memoized
until Reset.  Fields the schema declares as pointers become child Pointers
in the returned Contents, so walking deeper into the document graph stays lazy:
each child downloads only when its own Contents is asked for.

Pointers form a tree.  Every call that produces children produces fresh ones,
so a child is owned by exactly one parent's Contents.
*/
package pointer

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/adapter"
	"github.com/warptools/ledgerview/pkg/logging"
	"github.com/warptools/ledgerview/pkg/tracing"
)

// Pointer is a lazily resolved reference to an off-ledger document.
// It is safe for concurrent use.
type Pointer struct {
	reg    *adapter.Registry
	ref    string
	schema lvapi.FieldSchema
	fields []field

	mu      sync.Mutex
	pending *download // nil until the first Contents call, and again after Reset or a failure
}

// field is a schema entry with its defaults made explicit.
type field struct {
	name     string
	required bool
	nested   bool
	children *lvapi.FieldSchema // nil for plain fields
}

func (f field) isPointer() bool {
	return f.children != nil || f.nested
}

// download is the single pending-operation slot of a Pointer.
// Everyone who asks for contents while it is in flight waits on done.
type download struct {
	done     chan struct{}
	contents *Contents
	err      error
	waiters  int // callers that joined after it started; guarded by Pointer.mu
}

// New creates a pointer to the document at uri, shaped by schema.
// The registry is used to find a backend for uri's scheme when the contents are
// first needed, and is passed on to every child pointer.
//
// Errors:
//
//   - ledgerview-error-storage-pointer -- when uri is empty
//   - ledgerview-error-storage-pointer -- when schema, or any schema nested in it, has field names that differ only in case
//   - ledgerview-error-invalid -- when reg is nil
func New(reg *adapter.Registry, uri string, schema lvapi.FieldSchema) (*Pointer, error) {
	if uri == "" {
		return nil, lvapi.ErrorMissingURI()
	}
	if reg == nil {
		return nil, lvapi.ErrorInvalid("cannot instantiate storage pointer without an adapter registry", [2]string{"uri", uri})
	}
	fields, err := normalize(uri, schema)
	if err != nil {
		return nil, err
	}
	return &Pointer{
		reg:    reg,
		ref:    uri,
		schema: schema,
		fields: fields,
	}, nil
}

// normalize validates schema and fills in defaults.
// Children schemas are validated here too, so a bad schema fails at construction
// rather than halfway through a walk of the document tree.
func normalize(uri string, schema lvapi.FieldSchema) ([]field, error) {
	seen := make(map[string]string, len(schema.Keys))
	fields := make([]field, 0, len(schema.Keys))
	for _, name := range schema.Keys {
		folded := strings.ToLower(name)
		if first, exists := seen[folded]; exists {
			return nil, lvapi.ErrorFieldNameConflict(uri, first, name)
		}
		seen[folded] = name

		spec := schema.Values[name]
		f := field{
			name:     name,
			required: spec.IsRequired(),
			nested:   spec.IsNested(),
			children: spec.Children,
		}
		if f.nested {
			// Entries of a nested map are leaves; no fixed schema applies to them.
			f.children = nil
		}
		if f.children != nil {
			if _, err := normalize(uri, *f.children); err != nil {
				return nil, err
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// ValidateSchema reports the problems New would find in schema, without needing a uri.
//
// Errors:
//
//   - ledgerview-error-storage-pointer -- when schema, or any schema nested in it, has field names that differ only in case
func ValidateSchema(schema lvapi.FieldSchema) error {
	_, err := normalize("", schema)
	return err
}

// Ref returns the uri this pointer was created with.
func (p *Pointer) Ref() string {
	return p.ref
}

// Schema returns the schema this pointer was created with.
func (p *Pointer) Schema() lvapi.FieldSchema {
	return p.schema
}

// Contents downloads the document and projects it through the schema.
// The result is memoized; concurrent callers share one download.
// A failed download is not memoized, so calling again retries.
//
// The download runs under the context of the caller that started it.
// Callers that join it share its outcome, including a cancellation of that context.
// If ctx ends while waiting on a download started by another caller,
// Contents returns without waiting further; the download itself carries on.
//
// Errors:
//
//   - ledgerview-error-offchain-data-runtime -- when no backend handles the uri's scheme
//   - ledgerview-error-storage-pointer -- when the download fails (retryable)
//   - ledgerview-error-storage-pointer -- when the document does not fit the schema
func (p *Pointer) Contents(ctx context.Context) (*Contents, error) {
	p.mu.Lock()
	d := p.pending
	if d != nil {
		d.waiters++
		n := d.waiters
		p.mu.Unlock()
		logging.Ctx(ctx).Debug("pointer", "waiting on download of %s (%d waiting)", p.ref, n)
		select {
		case <-d.done:
			return d.contents, d.err
		case <-ctx.Done():
			return nil, lvapi.ErrorDownload(p.ref, ctx.Err())
		}
	}
	d = &download{done: make(chan struct{})}
	p.pending = d
	p.mu.Unlock()

	d.contents, d.err = p.computeContents(ctx)
	close(d.done)
	if d.err != nil {
		p.mu.Lock()
		if p.pending == d {
			p.pending = nil
		}
		p.mu.Unlock()
	}
	return d.contents, d.err
}

// Reset drops the memoized contents.  The next Contents call downloads again.
// Callers already waiting on an in-flight download still receive its result.
func (p *Pointer) Reset() {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
}

func (p *Pointer) computeContents(ctx context.Context) (_ *Contents, err error) {
	ctx, span := tracing.Start(ctx, "pointer.download", trace.WithAttributes(
		attribute.String(tracing.AttrKeyLedgerviewURI, p.ref),
	))
	defer tracing.EndWithError(ctx, span, &err)

	backend, err := p.reg.ForURI(p.ref)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug("pointer", "downloading %s", p.ref)
	raw, err := backend.Download(ctx, p.ref)
	if err != nil {
		return nil, lvapi.ErrorDownload(p.ref, err)
	}
	return p.project(raw)
}
