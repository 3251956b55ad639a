package tracing

// Span attribute keys used by ledgerview
const (
	AttrKeyLedgerviewErrorCode   = "ledgerview.error.code"
	AttrKeyLedgerviewURI         = "ledgerview.uri"
	AttrKeyLedgerviewScheme      = "ledgerview.scheme"
	AttrKeyLedgerviewFieldCount  = "ledgerview.field.count"
	AttrKeyLedgerviewSetterGroup = "ledgerview.setter.group"
)
