/*
Package remote keeps a local, mutable view of fields whose authoritative values
live in a slow remote store (typically a ledger).

A FieldSet is created once per owning entity from a list of FieldDescriptors.
Reads fetch every field at once the first time any of them is needed;
writes stay local until UpdateRemoteData, which calls each affected setter once.
A field is dirty when its local value differs from the last value the remote store confirmed.
Confirmation arrives through the receipt hook on the returned WriteResults,
not when the setter returns.

The set moves through three deployment states: undeployed, deployed, and obsolete.
Reads are only possible while deployed.  Obsolete is terminal.
*/
package remote

import (
	"context"
	"strings"
	"sync"

	"github.com/facette/natsort"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/logging"
	"github.com/warptools/ledgerview/pkg/tracing"
)

const logTag = "remote"

// Getter reads one field's authoritative value.
type Getter func(ctx context.Context) (interface{}, error)

// Setter writes one or more fields to the remote store.
// It reads the values to write from its owner; the FieldSet only decides when to call it.
type Setter func(ctx context.Context, opts lvapi.WriteOptions) (*lvapi.WriteResult, error)

// EqualFunc decides whether a local value still matches the confirmed one.
type EqualFunc func(a, b interface{}) bool

// FieldDescriptor configures one tracked field.
type FieldDescriptor struct {
	Name string
	Get  Getter

	// Set is optional.  Fields without a setter are read-only and never committed.
	Set Setter

	// SetterGroup names the physical write operation this field belongs to.
	// Fields with the same group are committed together by one setter call,
	// even when only some of them are dirty.
	// Empty means the field name.
	SetterGroup string

	// Equal defaults to DefaultEqual.
	Equal EqualFunc
}

type state int

const (
	undeployed state = iota
	deployed
	obsolete
)

func (s state) String() string {
	switch s {
	case undeployed:
		return "undeployed"
	case deployed:
		return "deployed"
	case obsolete:
		return "obsolete"
	}
	return "invalid"
}

// FieldSet is safe for concurrent use.
type FieldSet struct {
	cells  []*cell // in descriptor order
	index  map[string]*cell
	groups []*group // sorted by id

	mu      sync.Mutex
	state   state
	fetched bool
	pending *fetch // the fan-out in flight, if any
}

type cell struct {
	name     string
	get      Getter
	set      Setter
	equal    EqualFunc
	group    *group // nil for read-only fields
	current  interface{}
	baseline interface{}
	assigned bool // current holds a fetched or locally set value
}

func (c *cell) dirty() bool {
	return !c.equal(c.current, c.baseline)
}

type group struct {
	id      string
	set     Setter
	members []*cell // sorted by name
}

type fetch struct {
	done    chan struct{}
	err     error
	waiters int // callers that joined after it started; guarded by FieldSet.mu
}

// NewFieldSet binds descriptors into a new, undeployed FieldSet.
//
// Every member of a setter group must carry a setter.
// The group calls the setter of its member whose name sorts first.
//
// Errors:
//
//   - ledgerview-error-invalid -- when a name is empty or repeated
//   - ledgerview-error-invalid -- when a getter is missing
//   - ledgerview-error-invalid -- when a setter group has a member without a setter
func NewFieldSet(fields []FieldDescriptor) (*FieldSet, error) {
	fs := &FieldSet{
		cells: make([]*cell, 0, len(fields)),
		index: make(map[string]*cell, len(fields)),
	}
	groups := map[string]*group{}
	var groupIDs []string
	for _, d := range fields {
		if d.Name == "" {
			return nil, lvapi.ErrorInvalid("field name must not be empty")
		}
		if _, exists := fs.index[d.Name]; exists {
			return nil, lvapi.ErrorInvalid("field name is repeated", [2]string{"field", d.Name})
		}
		if d.Get == nil {
			return nil, lvapi.ErrorInvalid("field has no getter", [2]string{"field", d.Name})
		}
		c := &cell{name: d.Name, get: d.Get, set: d.Set, equal: d.Equal}
		if c.equal == nil {
			c.equal = DefaultEqual
		}
		fs.cells = append(fs.cells, c)
		fs.index[d.Name] = c

		groupID := d.SetterGroup
		if groupID == "" {
			if d.Set == nil {
				continue
			}
			groupID = d.Name
		}
		if d.Set == nil {
			return nil, lvapi.ErrorInvalid("field in a setter group has no setter",
				[2]string{"field", d.Name},
				[2]string{"group", groupID},
			)
		}
		g, exists := groups[groupID]
		if !exists {
			g = &group{id: groupID}
			groups[groupID] = g
			groupIDs = append(groupIDs, groupID)
		}
		g.members = append(g.members, c)
		c.group = g
	}

	natsort.Sort(groupIDs)
	for _, id := range groupIDs {
		g := groups[id]
		g.members = sortMembers(g.members)
		g.set = g.members[0].set
		fs.groups = append(fs.groups, g)
	}
	return fs, nil
}

func cellNames(cells []*cell) []string {
	names := make([]string, len(cells))
	for i, c := range cells {
		names[i] = c.name
	}
	return names
}

func sortMembers(cells []*cell) []*cell {
	byName := make(map[string]*cell, len(cells))
	for _, c := range cells {
		byName[c.name] = c
	}
	names := cellNames(cells)
	natsort.Sort(names)
	result := make([]*cell, len(names))
	for i, name := range names {
		result[i] = byName[name]
	}
	return result
}

// MarkDeployed moves the set from undeployed to deployed.
// It does nothing when the set is already deployed.
//
// Errors:
//
//   - ledgerview-error-remote-data-access -- when the set is obsolete
func (fs *FieldSet) MarkDeployed() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.state == obsolete {
		return lvapi.ErrorRemoteDataAccess("cannot deploy: object was destroyed", "")
	}
	fs.state = deployed
	return nil
}

// MarkObsolete moves the set to its terminal state.
func (fs *FieldSet) MarkObsolete() {
	fs.mu.Lock()
	fs.state = obsolete
	fs.mu.Unlock()
}

func (fs *FieldSet) IsDeployed() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.state == deployed
}

func (fs *FieldSet) IsObsolete() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.state == obsolete
}

// Names lists the fields in the order they were described.
func (fs *FieldSet) Names() []string {
	return cellNames(fs.cells)
}

// Get returns the local value of a field.
// The first Get on a deployed set fetches every field from the remote store;
// concurrent callers share that fetch.  Until it succeeds no field has a value.
// After that, Get never calls the remote store again, until Invalidate.
//
// The fetch runs under the context of the caller that started it.
// Callers that join it share its outcome, including a cancellation of that context.
// If ctx ends while waiting on a fetch started by another caller,
// Get returns without waiting further; the fetch itself carries on.
//
// Errors:
//
//   - ledgerview-error-remote-data-access -- when the set is not deployed
//   - ledgerview-error-invalid -- when there is no such field
//   - ledgerview-error-remote-data-read -- when any getter fails (retryable)
func (fs *FieldSet) Get(ctx context.Context, name string) (interface{}, error) {
	for {
		fs.mu.Lock()
		c, err := fs.readable(name)
		if err != nil {
			fs.mu.Unlock()
			return nil, err
		}
		if fs.fetched {
			v := c.current
			fs.mu.Unlock()
			return v, nil
		}
		f := fs.pending
		if f == nil {
			f = &fetch{done: make(chan struct{})}
			fs.pending = f
			fs.mu.Unlock()
			fs.fetchAll(ctx, f)
		} else {
			f.waiters++
			n := f.waiters
			fs.mu.Unlock()
			logging.Ctx(ctx).Debug(logTag, "waiting on fetch in flight (%d waiting)", n)
		}

		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, lvapi.ErrorRemoteDataRead(ctx.Err())
		}
		if f.err != nil {
			return nil, f.err
		}
		// Loop to read the value under the lock.
	}
}

// readable must be called with mu held.
func (fs *FieldSet) readable(name string) (*cell, error) {
	switch fs.state {
	case obsolete:
		return nil, lvapi.ErrorRemoteDataAccess("object was destroyed", name)
	case undeployed:
		return nil, lvapi.ErrorRemoteDataAccess("cannot fetch undeployed object", name)
	}
	c, ok := fs.index[name]
	if !ok {
		return nil, lvapi.ErrorInvalid("no such field", [2]string{"field", name})
	}
	return c, nil
}

// fetchAll runs every getter concurrently and applies the results all at once.
func (fs *FieldSet) fetchAll(ctx context.Context, f *fetch) {
	var err error
	ctx, span := tracing.Start(ctx, "remote.fetch", trace.WithAttributes(
		attribute.Int(tracing.AttrKeyLedgerviewFieldCount, len(fs.cells)),
	))
	defer tracing.EndWithError(ctx, span, &err)
	logging.Ctx(ctx).Debug(logTag, "fetching %d fields", len(fs.cells))

	values := make([]interface{}, len(fs.cells))
	grp, gctx := errgroup.WithContext(ctx)
	for i, c := range fs.cells {
		i, c := i, c
		grp.Go(func() error {
			v, err := c.get(gctx)
			values[i] = v
			return err
		})
	}
	err = grp.Wait()
	if err != nil {
		err = lvapi.ErrorRemoteDataRead(err)
	}

	fs.mu.Lock()
	if fs.pending == f {
		fs.pending = nil
		if err == nil {
			for i, c := range fs.cells {
				c.current = values[i]
				c.baseline = values[i]
				c.assigned = true
			}
			fs.fetched = true
		}
	}
	fs.mu.Unlock()
	f.err = err
	close(f.done)
}

// Set changes the local value of a field.  It never talks to the remote store.
// Values set before the first fetch are replaced by what the fetch returns.
//
// Errors:
//
//   - ledgerview-error-remote-data-access -- when the set is obsolete
//   - ledgerview-error-invalid -- when there is no such field
func (fs *FieldSet) Set(name string, value interface{}) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.state == obsolete {
		return lvapi.ErrorRemoteDataAccess("object was destroyed", name)
	}
	c, ok := fs.index[name]
	if !ok {
		return lvapi.ErrorInvalid("no such field", [2]string{"field", name})
	}
	c.current = value
	c.assigned = true
	return nil
}

// Peek returns the local value of a field without fetching.
// The second result is false when the field is unknown, or has neither been fetched nor set.
// Setters use this to read the values they are about to write.
func (fs *FieldSet) Peek(name string) (interface{}, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	c, ok := fs.index[name]
	if !ok || !c.assigned {
		return nil, false
	}
	return c.current, true
}

// Dirty lists the fields whose local value differs from the confirmed one.
// Nothing is dirty before the first fetch.
func (fs *FieldSet) Dirty() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.fetched {
		return nil
	}
	var names []string
	for _, c := range fs.cells {
		if c.dirty() {
			names = append(names, c.name)
		}
	}
	natsort.Sort(names)
	return names
}

// Invalidate forgets everything fetched, so the next Get fetches again.
// Local changes that were not committed are lost.
func (fs *FieldSet) Invalidate() {
	fs.mu.Lock()
	fs.fetched = false
	fs.pending = nil
	for _, c := range fs.cells {
		c.current = nil
		c.baseline = nil
		c.assigned = false
	}
	fs.mu.Unlock()
}

// UpdateRemoteData commits dirty fields.
//
// Each setter group with at least one dirty member is committed by exactly one setter call,
// and groups are committed concurrently.  A failing group does not stop the others.
// The results of the groups that succeeded are returned in order of group id,
// along with the first failure if there was one.  Failed groups stay dirty.
//
// Fields are not considered synced when this returns.
// Each result's OnReceipt hook is wrapped so that invoking it marks the group's
// fields as synced at their local values, before calling the original hook.
//
// Errors:
//
//   - ledgerview-error-remote-data-access -- when the set is obsolete
//   - ledgerview-error-remote-data-write -- when a setter fails
func (fs *FieldSet) UpdateRemoteData(ctx context.Context, opts lvapi.WriteOptions) (_ []*lvapi.WriteResult, err error) {
	fs.mu.Lock()
	if fs.state == obsolete {
		fs.mu.Unlock()
		return nil, lvapi.ErrorRemoteDataAccess("object was destroyed", "")
	}
	var todo []*group
	if fs.fetched {
		for _, g := range fs.groups {
			for _, c := range g.members {
				if c.dirty() {
					todo = append(todo, g)
					break
				}
			}
		}
	}
	fs.mu.Unlock()
	if len(todo) == 0 {
		return nil, nil
	}

	ctx, span := tracing.Start(ctx, "remote.commit")
	defer tracing.EndWithError(ctx, span, &err)

	results := make([]*lvapi.WriteResult, len(todo))
	var grp errgroup.Group
	for i, g := range todo {
		i, g := i, g
		grp.Go(func() error {
			res, err := fs.commit(ctx, g, opts)
			results[i] = res
			return err
		})
	}
	err = grp.Wait()

	committed := make([]*lvapi.WriteResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			committed = append(committed, res)
		}
	}
	return committed, err
}

func (fs *FieldSet) commit(ctx context.Context, g *group, opts lvapi.WriteOptions) (_ *lvapi.WriteResult, err error) {
	ctx, span := tracing.Start(ctx, "remote.commit.group", trace.WithAttributes(
		attribute.String(tracing.AttrKeyLedgerviewSetterGroup, g.id),
	))
	defer tracing.EndWithError(ctx, span, &err)
	logging.Ctx(ctx).Debug(logTag, "committing setter group %q (%s)", g.id, strings.Join(cellNames(g.members), ", "))

	res, err := g.set(ctx, opts)
	if err != nil {
		return nil, lvapi.ErrorRemoteDataWrite(g.id, err)
	}
	if res == nil {
		res = &lvapi.WriteResult{}
	}
	original := res.Callbacks.OnReceipt
	res.Callbacks.OnReceipt = func(receipt lvapi.Receipt) {
		fs.markSynced(g)
		if original != nil {
			original(receipt)
		}
	}
	return res, nil
}

func (fs *FieldSet) markSynced(g *group) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, c := range g.members {
		c.baseline = c.current
	}
}
