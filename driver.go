package configbus

import (
	"context"
	"errors"
)

// ErrReadOnly is returned by drivers when a mutating operation is
// attempted through a handle that was opened read-only.
var ErrReadOnly = errors.New("configbus: handle is read-only")

// ValueKind reports how a stored value is represented inside the
// backing store. Flash-backed stores such as ESP32 NVS keep string
// values and byte blobs in distinct internal types; the resolver needs
// to know which one it is looking at before reading.
type ValueKind int

const (
	// ValueAbsent means no value is stored under the key.
	ValueAbsent ValueKind = iota

	// ValueBytes means the value is a byte blob with a known length.
	ValueBytes

	// ValueString means the value is stored as a native string
	// (the legacy representation; its byte length is not reported).
	ValueString
)

// Lookup is the result of a Stat call: a tri-state answer that keeps
// "absent" distinct from "stored as a string", which a bare byte-length
// query cannot express (both report zero).
type Lookup struct {
	Kind ValueKind

	// Size is the stored byte length. Meaningful only for ValueBytes.
	Size int
}

// Driver models a namespaced flash-backed key-value partition.
// Implementations must serialize their own internal access; this
// package opens a handle per operation and never holds one across
// calls.
type Driver interface {
	// Open starts a session against one namespace. Read-only handles
	// reject mutating operations with ErrReadOnly.
	Open(ctx context.Context, namespace string, readOnly bool) (Handle, error)
}

// Handle is one open session against a namespace. It is not safe for
// concurrent use; callers close it before returning.
type Handle interface {
	// Contains reports whether any value is stored under key.
	Contains(key string) bool

	// Stat classifies the value under key without reading it.
	Stat(key string) Lookup

	// GetBytes copies the stored blob into dst and returns the number
	// of bytes read. len(dst) must equal the stored length reported by
	// Stat; a short or failed read returns the count actually copied.
	GetBytes(key string, dst []byte) (int, error)

	// PutBytes stores src as a byte blob under key, overwriting any
	// existing value, and returns the number of bytes written.
	PutBytes(key string, src []byte) (int, error)

	// GetString returns the stored string value, or fallback when the
	// key is absent or not stored as a string.
	GetString(key, fallback string) string

	// Remove deletes the value under key and reports whether it existed.
	Remove(key string) bool

	// EraseAll removes every key in the namespace.
	EraseAll() bool

	// Close ends the session. The handle must not be used afterwards.
	Close() error
}
