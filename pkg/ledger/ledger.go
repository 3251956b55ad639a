/*
Package ledger is an in-memory, append-only record store shaped like a
transactional ledger: writes are queued as pending transactions and only take
effect when a block is mined, at which point their receipt hooks fire.

It stands in for a real ledger node, so that code built on package remote
can be exercised end to end.
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/facette/natsort"
	"github.com/google/uuid"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/logging"
	"github.com/warptools/ledgerview/pkg/remote"
)

const logTag = "ledger"

// Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	records map[string]*record
	pending []*transaction
	block   int
}

type record struct {
	values    map[string]interface{}
	destroyed bool
}

type transaction struct {
	data    TxData
	changes map[string]interface{}
	result  *lvapi.WriteResult
}

// TxData is the Data of every WriteResult this package produces.
type TxData struct {
	ID      string
	Address string
	From    string
	Keys    []string
}

// Receipt is handed to OnReceipt hooks when a transaction is mined.
type Receipt struct {
	TxID     string
	Address  string
	Block    int
	Reverted bool // the record was destroyed before the transaction was mined
}

func New() *Ledger {
	return &Ledger{records: make(map[string]*record)}
}

// Deploy stores a new record immediately and returns its address.
func (l *Ledger) Deploy(values map[string]interface{}) string {
	addr := "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	l.mu.Lock()
	l.records[addr] = &record{values: copied}
	l.mu.Unlock()
	return addr
}

// Read returns the mined value of key at addr.  Keys that were never written read as nil.
//
// Errors:
//
//   - ledgerview-error-not-found -- when addr holds no live record
func (l *Ledger) Read(ctx context.Context, addr string, key string) (interface{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, err := l.live(addr)
	if err != nil {
		return nil, err
	}
	return rec.values[key], nil
}

// live must be called with mu held.
func (l *Ledger) live(addr string) (*record, error) {
	rec, ok := l.records[addr]
	if !ok || rec.destroyed {
		return nil, lvapi.ErrorRecordNotFound(addr)
	}
	return rec, nil
}

// Call queues a transaction that writes changes to the record at addr.
// Nothing changes until the next Mine.
//
// Errors:
//
//   - ledgerview-error-not-found -- when addr holds no live record
//   - ledgerview-error-invalid -- when changes is empty
func (l *Ledger) Call(ctx context.Context, addr string, opts lvapi.WriteOptions, changes map[string]interface{}) (*lvapi.WriteResult, error) {
	if len(changes) == 0 {
		return nil, lvapi.ErrorInvalid("transaction has no changes", [2]string{"address", addr})
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.live(addr); err != nil {
		return nil, err
	}
	tx := &transaction{
		data: TxData{
			ID:      uuid.NewString(),
			Address: addr,
			From:    opts.From,
			Keys:    sortedKeys(changes),
		},
		changes: changes,
	}
	tx.result = &lvapi.WriteResult{Data: tx.data}
	l.pending = append(l.pending, tx)
	logging.Ctx(ctx).Debug(logTag, "queued transaction %s on %s (%s)", tx.data.ID, addr, strings.Join(tx.data.Keys, ", "))
	return tx.result, nil
}

// Pending counts queued transactions.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Mine applies every pending transaction in the order it was queued,
// then invokes the OnReceipt hook of each applied transaction's WriteResult.
// Hooks are read when mining, so hooks installed after Call returned are honored.
// Transactions on records destroyed in the meantime are reverted and their hooks are not called.
func (l *Ledger) Mine() []Receipt {
	l.mu.Lock()
	l.block++
	txs := l.pending
	l.pending = nil
	receipts := make([]Receipt, len(txs))
	for i, tx := range txs {
		receipts[i] = Receipt{TxID: tx.data.ID, Address: tx.data.Address, Block: l.block}
		rec, err := l.live(tx.data.Address)
		if err != nil {
			receipts[i].Reverted = true
			continue
		}
		for k, v := range tx.changes {
			rec.values[k] = v
		}
	}
	l.mu.Unlock()

	for i, tx := range txs {
		if receipts[i].Reverted {
			continue
		}
		if hook := tx.result.Callbacks.OnReceipt; hook != nil {
			hook(receipts[i])
		}
	}
	return receipts
}

// Destroy removes the record at addr.
//
// Errors:
//
//   - ledgerview-error-not-found -- when addr holds no live record
func (l *Ledger) Destroy(addr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, err := l.live(addr)
	if err != nil {
		return err
	}
	rec.destroyed = true
	return nil
}

// Getter reads one key of the record at addr.
func (l *Ledger) Getter(addr string, key string) remote.Getter {
	return func(ctx context.Context) (interface{}, error) {
		return l.Read(ctx, addr, key)
	}
}

// Values looks up the local value a setter should write for a key.
type Values func(key string) (interface{}, bool)

// Setter writes keys of the record at addr in one transaction,
// taking their values from values at the time of the call.
func (l *Ledger) Setter(addr string, values Values, keys ...string) remote.Setter {
	return func(ctx context.Context, opts lvapi.WriteOptions) (*lvapi.WriteResult, error) {
		changes := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			v, ok := values(k)
			if !ok {
				return nil, lvapi.ErrorInvalid(fmt.Sprintf("no local value to write for %q", k), [2]string{"address", addr})
			}
			changes[k] = v
		}
		return l.Call(ctx, addr, opts, changes)
	}
}

// Bind creates a FieldSet over every key of the record at addr.
// Keys in readOnly get no setter.
// Each group lists keys written together by one transaction; keys may only appear in one group.
// Every other key of the record is written by a transaction of its own.
// Listed keys need not exist in the record yet.
// The returned set is already deployed.
//
// Errors:
//
//   - ledgerview-error-not-found -- when addr holds no live record
//   - ledgerview-error-invalid -- when a key appears twice
func (l *Ledger) Bind(addr string, readOnly []string, groups ...[]string) (*remote.FieldSet, error) {
	l.mu.Lock()
	rec, err := l.live(addr)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	recordKeys := sortedKeys(rec.values)
	l.mu.Unlock()

	var fs *remote.FieldSet
	values := func(key string) (interface{}, bool) {
		return fs.Peek(key)
	}
	listed := map[string]struct{}{}
	var fields []remote.FieldDescriptor
	for _, key := range readOnly {
		listed[key] = struct{}{}
		fields = append(fields, remote.FieldDescriptor{Name: key, Get: l.Getter(addr, key)})
	}
	for _, keys := range groups {
		if len(keys) == 0 {
			continue
		}
		setter := l.Setter(addr, values, keys...)
		for _, key := range keys {
			listed[key] = struct{}{}
			fields = append(fields, remote.FieldDescriptor{
				Name:        key,
				Get:         l.Getter(addr, key),
				Set:         setter,
				SetterGroup: strings.Join(keys, "+"),
			})
		}
	}
	for _, key := range recordKeys {
		if _, ok := listed[key]; ok {
			continue
		}
		fields = append(fields, remote.FieldDescriptor{
			Name:        key,
			Get:         l.Getter(addr, key),
			Set:         l.Setter(addr, values, key),
			SetterGroup: key,
		})
	}
	fs, err = remote.NewFieldSet(fields)
	if err != nil {
		return nil, err
	}
	if err := fs.MarkDeployed(); err != nil {
		return nil, err
	}
	return fs, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	natsort.Sort(keys)
	return keys
}
