package configbus

import (
	"context"
	"errors"
	"fmt"
)

// DefaultNamespace is used when the constructor receives an empty
// namespace.
const DefaultNamespace = "appcfg"

var (
	ErrInvalidArgument  = errors.New("configbus: invalid argument")
	ErrKeyTooLong       = errors.New("configbus: key too long")
	ErrStoreUnavailable = errors.New("configbus: store unavailable")
	ErrNotFound         = errors.New("configbus: not found")
	ErrBufferTooSmall   = errors.New("configbus: buffer too small")
	ErrEncodeFailed     = errors.New("configbus: encode failed")
	ErrDecodeFailed     = errors.New("configbus: decode failed")
	ErrSizeMismatch     = errors.New("configbus: size mismatch")
)

// Option customizes Bus behavior.
type Option[TModule ~string] func(*bus[TModule])

// WithDriver specifies the backing store driver.
// If not provided, NewMemory() will be used.
func WithDriver[TModule ~string](d Driver) Option[TModule] {
	return func(b *bus[TModule]) {
		if d != nil {
			b.driver = d
		}
	}
}

// WithLogger specifies a logger for diagnostic messages.
// If not provided, a no-op logger is used (no logging).
func WithLogger[TModule ~string](logger Logger) Option[TModule] {
	return func(b *bus[TModule]) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLogTag sets a tag prefix for all log messages.
// Useful for identifying the source of logs when several buses share
// one logger.
func WithLogTag[TModule ~string](tag string) Option[TModule] {
	return func(b *bus[TModule]) {
		b.logTag = tag
	}
}

// WithScratchCapacity sets the size of the internal scratch buffer used
// by Load and Save. If not provided, DefaultScratchCapacity is used.
func WithScratchCapacity[TModule ~string](capacity int) Option[TModule] {
	return func(b *bus[TModule]) {
		if capacity > 0 {
			b.scratchCap = capacity
		}
	}
}

// Bus exposes per-module configuration persistence scoped to one
// namespace of the backing store. A module's record may exist on disk
// in three encodings (legacy string, text bytes, compact binary); Load
// reads whichever is present and Save prefers the compact form.
type Bus[TModule ~string] interface {
	// Load reads the record for module into doc, trying the compact
	// form first, then text bytes, then the legacy string form.
	// Successful reads from a non-compact form opportunistically
	// upgrade the stored encoding. doc is cleared on every failure so
	// callers can apply defaults unconditionally.
	//
	// When both the primary and the compact key exist with divergent
	// content, the compact form wins; no reconciliation is attempted.
	Load(ctx context.Context, module TModule, doc Document) error

	// Save persists doc for module, preferring the compact form and
	// falling back to text bytes when the compact write fails. A
	// successful compact write does not remove an older text record;
	// reads always prefer compact.
	Save(ctx context.Context, module TModule, doc Document) error

	// LoadCompact reads only the compact form, staging through the
	// caller's scratch buffer. No fallback and no migration.
	LoadCompact(ctx context.Context, module TModule, doc Document, scratch *ScratchBuffer) error

	// SaveCompact writes only the compact form, staging through the
	// caller's scratch buffer.
	SaveCompact(ctx context.Context, module TModule, doc Document, scratch *ScratchBuffer) error

	// ClearModule removes every stored form of the module's record and
	// reports whether any existed.
	ClearModule(ctx context.Context, module TModule) (bool, error)

	// ClearAll removes every key in the namespace. Irreversible.
	ClearAll(ctx context.Context) error
}

type bus[TModule ~string] struct {
	namespace  string
	driver     Driver
	logger     Logger
	logTag     string
	scratchCap int
}

// New creates a Bus scoped to one namespace of the backing store.
// If no driver is provided via WithDriver, NewMemory() is used.
// If no logger is provided via WithLogger, a no-op logger is used.
func New[TModule ~string](namespace string, opts ...Option[TModule]) Bus[TModule] {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	b := &bus[TModule]{
		namespace:  namespace,
		driver:     NewMemory(),
		logger:     defaultLogger,
		scratchCap: DefaultScratchCapacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *bus[TModule]) logf(level string, ctx context.Context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if b.logTag != "" {
		msg = b.logTag + " " + msg
	}
	switch level {
	case "info":
		b.logger.Info(ctx, msg)
	case "warn":
		b.logger.Warn(ctx, msg)
	case "error":
		b.logger.Error(ctx, msg)
	case "debug":
		b.logger.Debug(ctx, msg)
	}
}

func (b *bus[TModule]) openRead(ctx context.Context) (Handle, error) {
	h, err := b.driver.Open(ctx, b.namespace, true)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q read-only: %v", ErrStoreUnavailable, b.namespace, err)
	}
	return h, nil
}

func (b *bus[TModule]) openWrite(ctx context.Context) (Handle, error) {
	h, err := b.driver.Open(ctx, b.namespace, false)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q read-write: %v", ErrStoreUnavailable, b.namespace, err)
	}
	return h, nil
}

// ClearModule removes both the primary and the compact key.
func (b *bus[TModule]) ClearModule(ctx context.Context, module TModule) (bool, error) {
	id := string(module)
	if id == "" {
		b.logf("error", ctx, "ClearModule: empty module id")
		return false, fmt.Errorf("%w: empty module id", ErrInvalidArgument)
	}

	h, err := b.openWrite(ctx)
	if err != nil {
		b.logf("error", ctx, "ClearModule %s failed: %v", id, err)
		return false, err
	}
	defer h.Close()

	existed := h.Remove(id)
	if key, kerr := compactKey(id); kerr == nil {
		if h.Remove(key) {
			existed = true
		}
	}
	return existed, nil
}

// ClearAll removes every key in the namespace.
func (b *bus[TModule]) ClearAll(ctx context.Context) error {
	h, err := b.openWrite(ctx)
	if err != nil {
		b.logf("error", ctx, "ClearAll failed: %v", err)
		return err
	}
	defer h.Close()

	if !h.EraseAll() {
		b.logf("error", ctx, "ClearAll: erase of namespace %q failed", b.namespace)
		return fmt.Errorf("%w: erase of namespace %q failed", ErrStoreUnavailable, b.namespace)
	}
	return nil
}
