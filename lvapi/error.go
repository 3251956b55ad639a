package lvapi

import (
	"encoding/json"
	"os"

	"github.com/serum-errors/go-serum"
)

const (
	ECodeInvalid             = "ledgerview-error-invalid"
	ECodeUnknown             = "ledgerview-error-unknown"
	ECodeInternal            = "ledgerview-error-internal"
	ECodeInitialization      = "ledgerview-error-initialization"
	ECodeIo                  = "ledgerview-error-io"
	ECodeSerialization       = "ledgerview-error-serialization"
	ECodeNotFound            = "ledgerview-error-not-found"
	ECodeSearchingFilesystem = "ledgerview-error-searching-filesystem"
	ECodeStoragePointer      = "ledgerview-error-storage-pointer"
	ECodeRemoteDataAccess    = "ledgerview-error-remote-data-access"
	ECodeRemoteDataRead      = "ledgerview-error-remote-data-read"
	ECodeRemoteDataWrite     = "ledgerview-error-remote-data-write"
	ECodeOffChainDataRuntime = "ledgerview-error-offchain-data-runtime"
)

// Values of the "phase" detail on storage pointer errors.
// Only download failures are worth retrying; the rest describe bad input.
const (
	PhaseConstruct = "construct"
	PhaseDownload  = "download"
	PhaseShape     = "shape"
)

// TerminalError emits an error on stdout as json, and halts immediately.
// This is only for init paths, where no other output protocol is set up yet.
func TerminalError(err serum.ErrorInterface, exitCode int) {
	json.NewEncoder(os.Stdout).Encode(struct {
		Error serum.ErrorInterface `json:"error"`
	}{err})
	os.Exit(exitCode)
}

// ErrorUnknown is returned when an unknown error occurs
//
// Errors:
//
//   - ledgerview-error-unknown --
func ErrorUnknown(msgTmpl string, cause error) error {
	return serum.Errorf(ECodeUnknown, "%s: %w", msgTmpl, cause)
}

// ErrorInternal is for miscellaneous errors that should be handled internally.
// In most cases, prefer to use more specific errors.
//
// Errors:
//
//   - ledgerview-error-internal --
func ErrorInternal(msgTmpl string, cause error) error {
	return serum.Errorf(ECodeInternal, "%s: %w", msgTmpl, cause)
}

// ErrorInvalid is returned when something is invalid.
// In most cases, prefer to use more specific errors.
// The caller must format the message string.
//
// Errors:
//
//   - ledgerview-error-invalid --
func ErrorInvalid(message string, deets ...[2]string) error {
	opts := make([]serum.WithConstruction, 0, len(deets)+1)
	for _, d := range deets {
		opts = append(opts, serum.WithDetail(d[0], d[1]))
	}
	opts = append(opts, serum.WithMessageLiteral(message))
	return serum.Error(ECodeInvalid, opts...)
}

// ErrorIo wraps generic I/O errors from the Go stdlib
//
// Errors:
//
//   - ledgerview-error-io --
func ErrorIo(context string, path string, cause error) error {
	result := serum.Errorf(ECodeIo,
		"io error: %s: %w", context, cause)
	addDetails(result, [][2]string{{"context", context}, {"path", path}})
	return result
}

// ErrorSerialization is returned when a serialization or deserialization error occurs
//
// Errors:
//
//   - ledgerview-error-serialization --
func ErrorSerialization(context string, cause error) error {
	result := serum.Errorf(ECodeSerialization,
		"serialization error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorSearchingFilesystem is returned when an error occurs during search
//
// Errors:
//
//   - ledgerview-error-searching-filesystem --
func ErrorSearchingFilesystem(searchingFor string, cause error) error {
	result := serum.Errorf(ECodeSearchingFilesystem,
		"error while searching filesystem for %s: %w", searchingFor, cause)
	addDetails(result, [][2]string{
		{"searchingFor", searchingFor},
	})
	return result
}

// ErrorRecordNotFound is returned when a ledger address holds no live record,
// either because nothing was deployed there or because it was destroyed.
//
// Errors:
//
//   - ledgerview-error-not-found --
func ErrorRecordNotFound(address string) error {
	return serum.Error(ECodeNotFound,
		serum.WithMessageTemplate("no record at address {{address|q}}"),
		serum.WithDetail("address", address),
	)
}

// ErrorMissingURI is returned when a storage pointer is constructed on an empty uri.
//
// Errors:
//
//   - ledgerview-error-storage-pointer --
func ErrorMissingURI() error {
	return serum.Error(ECodeStoragePointer,
		serum.WithMessageLiteral("cannot instantiate storage pointer without uri"),
		serum.WithDetail("phase", PhaseConstruct),
	)
}

// ErrorFieldNameConflict is returned when two schema fields share a name
// under case-insensitive comparison.
//
// Errors:
//
//   - ledgerview-error-storage-pointer --
func ErrorFieldNameConflict(uri string, first string, second string) error {
	return serum.Error(ECodeStoragePointer,
		serum.WithMessageTemplate("cannot create storage pointer for {{uri|q}}: conflict in field names {{first|q}} and {{second|q}}"),
		serum.WithDetail("uri", uri),
		serum.WithDetail("first", first),
		serum.WithDetail("second", second),
		serum.WithDetail("phase", PhaseConstruct),
	)
}

// ErrorDownload is returned when a backend fails to produce a document.
//
// Errors:
//
//   - ledgerview-error-storage-pointer --
func ErrorDownload(uri string, cause error) error {
	result := serum.Errorf(ECodeStoragePointer,
		"cannot download data: %w", cause)
	addDetails(result, [][2]string{
		{"uri", uri},
		{"phase", PhaseDownload},
	})
	return result
}

// ErrorFieldRequired is returned when a downloaded document lacks a field
// that its schema declares as required.
//
// Errors:
//
//   - ledgerview-error-storage-pointer --
func ErrorFieldRequired(uri string, field string) error {
	return serum.Error(ECodeStoragePointer,
		serum.WithMessageTemplate("cannot access field {{field|q}} on {{uri|q}}: it is required but missing"),
		serum.WithDetail("uri", uri),
		serum.WithDetail("field", field),
		serum.WithDetail("phase", PhaseShape),
	)
}

// ErrorFieldShape is returned when a pointer field holds something other than
// what its schema entry expects (a uri string, or a map of them).
//
// Errors:
//
//   - ledgerview-error-storage-pointer --
func ErrorFieldShape(uri string, field string, expected string) error {
	return serum.Error(ECodeStoragePointer,
		serum.WithMessageTemplate("cannot access field {{field|q}} on {{uri|q}}: it does not appear to be of type {{expected}}"),
		serum.WithDetail("uri", uri),
		serum.WithDetail("field", field),
		serum.WithDetail("expected", expected),
		serum.WithDetail("phase", PhaseShape),
	)
}

// ErrorDocumentShape is returned when a downloaded document is not a map.
//
// Errors:
//
//   - ledgerview-error-storage-pointer --
func ErrorDocumentShape(uri string, kind string) error {
	return serum.Error(ECodeStoragePointer,
		serum.WithMessageTemplate("cannot read document at {{uri|q}}: expected a map, got {{kind}}"),
		serum.WithDetail("uri", uri),
		serum.WithDetail("kind", kind),
		serum.WithDetail("phase", PhaseShape),
	)
}

// ErrorRemoteDataAccess is returned when a remotely backed field is used
// while its owner is in a deployment state that does not allow it.
//
// Errors:
//
//   - ledgerview-error-remote-data-access --
func ErrorRemoteDataAccess(message string, field string) error {
	return serum.Error(ECodeRemoteDataAccess,
		serum.WithMessageLiteral(message),
		serum.WithDetail("field", field),
	)
}

// ErrorRemoteDataRead wraps any failure of the remote getters during a sync.
//
// Errors:
//
//   - ledgerview-error-remote-data-read --
func ErrorRemoteDataRead(cause error) error {
	return serum.Errorf(ECodeRemoteDataRead, "cannot sync remote data: %w", cause)
}

// ErrorRemoteDataWrite wraps the failure of one setter group during a commit.
//
// Errors:
//
//   - ledgerview-error-remote-data-write --
func ErrorRemoteDataWrite(group string, cause error) error {
	result := serum.Errorf(ECodeRemoteDataWrite,
		"cannot update remote data for setter group %q: %w", group, cause)
	addDetails(result, [][2]string{
		{"group", group},
	})
	return result
}

// ErrorUnsupportedScheme is returned when no backend is registered for a uri scheme.
//
// Errors:
//
//   - ledgerview-error-offchain-data-runtime --
func ErrorUnsupportedScheme(scheme string) error {
	return serum.Error(ECodeOffChainDataRuntime,
		serum.WithMessageTemplate("unsupported data storage type: {{scheme|q}}"),
		serum.WithDetail("scheme", scheme),
	)
}

// ErrorOffChainData is returned when a backend cannot carry out an operation
// for reasons that are not about the remote data itself (read-only backends, bad uris).
//
// Errors:
//
//   - ledgerview-error-offchain-data-runtime --
func ErrorOffChainData(message string, uri string) error {
	return serum.Error(ECodeOffChainDataRuntime,
		serum.WithMessageLiteral(message),
		serum.WithDetail("uri", uri),
	)
}

// IsRetryable reports whether err describes a failure that may go away by itself:
// a failed remote sync or a failed document download.
// Configuration, shape, and state-access errors are never retryable.
func IsRetryable(err error) bool {
	switch serum.Code(err) {
	case ECodeRemoteDataRead, ECodeRemoteDataWrite:
		return true
	case ECodeStoragePointer:
		for _, d := range serum.Details(err) {
			if d[0] == "phase" {
				return d[1] == PhaseDownload
			}
		}
	}
	return false
}

// addDetails is a helper method to get around the fact that doing a type coercion within
// an exported function is not currently allowed by serum.
// We won't need this if serum supports an equivalent to %w in message templates OR
// supports adding details when using serum.Errorf
func addDetails(err error, details [][2]string) {
	s := err.(*serum.ErrorValue)
	s.Data.Details = append(s.Data.Details, details...)
}
