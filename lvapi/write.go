package lvapi

// WriteOptions is handed unchanged to every remote setter during a commit.
// The sync engine never looks inside it.
type WriteOptions struct {
	From  string
	Extra map[string]string
}

// Receipt is whatever confirmation the remote store produces once a write is final.
type Receipt interface{}

// EventCallbacks are hooks the caller of a commit invokes as the write progresses.
type EventCallbacks struct {
	OnReceipt func(Receipt)
}

// WriteResult is returned by a remote setter.
// Data is opaque transaction data for the caller to sign and submit.
type WriteResult struct {
	Data      interface{}
	Callbacks EventCallbacks
}
