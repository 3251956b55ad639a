package pointer

import (
	"context"
	"strings"

	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"golang.org/x/sync/errgroup"

	"github.com/warptools/ledgerview/lvapi"
)

var emptyMap = func() datamodel.Node {
	n, err := qp.BuildMap(basicnode.Prototype.Any, 0, func(datamodel.MapAssembler) {})
	if err != nil {
		panic(err)
	}
	return n
}()

// PlainOption controls how much of the document tree ToPlainObject resolves.
type PlainOption func(*plainConfig)

type plainConfig struct {
	paths    []string
	selected bool // false means every pointer is resolved
	depth    int  // pointer levels left to resolve; negative means unbounded
}

// WithResolvedFields limits resolution to the given dot-separated paths.
// A path's first segment names a pointer field on the current document;
// the rest of the path is applied to the child document in the same way.
// A bare field name resolves that child and everything beneath it.
//
// Passing no paths at all resolves nothing: every pointer is emitted as its uri.
// Not using this option resolves everything.
func WithResolvedFields(paths ...string) PlainOption {
	return func(cfg *plainConfig) {
		cfg.paths = paths
		cfg.selected = true
	}
}

// WithDepth caps how many levels of pointers below this document are resolved.
// Zero resolves none; negative is unbounded.
//
// The cap wins over WithResolvedFields: once it is used up, pointers are
// emitted as uris even where a path would continue.
func WithDepth(depth int) PlainOption {
	return func(cfg *plainConfig) {
		cfg.depth = depth
	}
}

// descend reports whether the pointer field name is resolved under cfg,
// and the config to resolve its child with.
func (cfg plainConfig) descend(name string) (plainConfig, bool) {
	if cfg.depth == 0 {
		return plainConfig{}, false
	}
	next := plainConfig{depth: cfg.depth}
	if cfg.depth > 0 {
		next.depth = cfg.depth - 1
	}
	if !cfg.selected {
		return next, true
	}
	matched := false
	next.selected = true
	for _, path := range cfg.paths {
		head, rest, hasRest := strings.Cut(path, ".")
		if head != name {
			continue
		}
		matched = true
		if !hasRest {
			next.selected = false
			next.paths = nil
		} else if next.selected {
			next.paths = append(next.paths, rest)
		}
	}
	return next, matched
}

// ToPlainObject renders the pointer as a map with two entries:
// "ref", the uri, and "contents", the document with the selected pointers
// replaced by their own rendering and the others by their uri string.
// Plain fields are copied verbatim at every level.
//
// Children at the same level are resolved concurrently.
//
// Errors:
//
//   - ledgerview-error-offchain-data-runtime -- when a resolved pointer's scheme has no backend
//   - ledgerview-error-storage-pointer -- when a resolved document cannot be downloaded or does not fit its schema
func (p *Pointer) ToPlainObject(ctx context.Context, opts ...PlainOption) (datamodel.Node, error) {
	cfg := plainConfig{depth: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return p.toPlain(ctx, cfg)
}

// plainEntry is one rendered field, waiting to be assembled.
type plainEntry struct {
	name   string
	value  datamodel.Node
	nested []plainEntry
	isMap  bool
}

func (p *Pointer) toPlain(ctx context.Context, cfg plainConfig) (datamodel.Node, error) {
	contents, err := p.Contents(ctx)
	if err != nil {
		return nil, err
	}

	fields := contents.Fields()
	entries := make([]plainEntry, len(fields))
	grp, gctx := errgroup.WithContext(ctx)
	for i, f := range fields {
		i, f := i, f
		entries[i].name = f.Name
		switch {
		case f.Pointer != nil:
			next, resolve := cfg.descend(f.Name)
			if !resolve {
				entries[i].value = basicnode.NewString(f.Pointer.Ref())
				continue
			}
			grp.Go(func() error {
				n, err := f.Pointer.toPlain(gctx, next)
				entries[i].value = n
				return err
			})
		case f.Nested != nil:
			entries[i].isMap = true
			entries[i].nested = make([]plainEntry, len(f.Nested.Keys))
			next, resolve := cfg.descend(f.Name)
			for j, key := range f.Nested.Keys {
				j, child := j, f.Nested.Values[key]
				entries[i].nested[j].name = key
				if !resolve {
					entries[i].nested[j].value = basicnode.NewString(child.Ref())
					continue
				}
				grp.Go(func() error {
					n, err := child.toPlain(gctx, next)
					entries[i].nested[j].value = n
					return err
				})
			}
		default:
			entries[i].value = f.Plain
		}
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	n, err := qp.BuildMap(basicnode.Prototype.Any, 2, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "ref", qp.String(p.ref))
		qp.MapEntry(ma, "contents", assembleEntries(entries))
	})
	if err != nil {
		return nil, lvapi.ErrorInternal("failed to assemble plain object for "+p.ref, err)
	}
	return n, nil
}

func assembleEntries(entries []plainEntry) qp.Assemble {
	return qp.Map(int64(len(entries)), func(ma datamodel.MapAssembler) {
		for _, e := range entries {
			if e.isMap {
				qp.MapEntry(ma, e.name, assembleEntries(e.nested))
				continue
			}
			qp.MapEntry(ma, e.name, qp.Node(e.value))
		}
	})
}
