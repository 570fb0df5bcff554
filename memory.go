package configbus

import (
	"context"
	"errors"
	"sync"
)

type memEntry struct {
	bytes    []byte
	str      string
	isString bool
}

// Memory implements Driver with thread-safe in-memory storage. It
// mimics a flash-backed partition closely enough for tests and for
// host-side tooling: namespaces are isolated, values are either byte
// blobs or native strings, and read-only handles reject writes.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]memEntry
}

// NewMemory creates an in-memory Driver instance.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string]memEntry)}
}

// Open starts a session against one namespace, creating it on first
// use the way a flash partition materializes a namespace on demand.
func (m *Memory) Open(ctx context.Context, namespace string, readOnly bool) (Handle, error) {
	if namespace == "" {
		return nil, errors.New("configbus: empty namespace")
	}
	m.mu.Lock()
	if _, ok := m.namespaces[namespace]; !ok {
		m.namespaces[namespace] = make(map[string]memEntry)
	}
	m.mu.Unlock()
	return &memHandle{store: m, ns: namespace, readOnly: readOnly}, nil
}

// SeedString plants a legacy string record, the way firmware builds
// predating byte-blob storage wrote their configuration. Intended for
// fixtures and host-side migration tests.
func (m *Memory) SeedString(namespace, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]memEntry)
		m.namespaces[namespace] = ns
	}
	ns[key] = memEntry{str: value, isString: true}
}

type memHandle struct {
	store    *Memory
	ns       string
	readOnly bool
	closed   bool
}

func (h *memHandle) entry(key string) (memEntry, bool) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	e, ok := h.store.namespaces[h.ns][key]
	return e, ok
}

func (h *memHandle) Contains(key string) bool {
	if h.closed {
		return false
	}
	_, ok := h.entry(key)
	return ok
}

func (h *memHandle) Stat(key string) Lookup {
	if h.closed {
		return Lookup{Kind: ValueAbsent}
	}
	e, ok := h.entry(key)
	if !ok {
		return Lookup{Kind: ValueAbsent}
	}
	if e.isString {
		return Lookup{Kind: ValueString}
	}
	return Lookup{Kind: ValueBytes, Size: len(e.bytes)}
}

func (h *memHandle) GetBytes(key string, dst []byte) (int, error) {
	if h.closed {
		return 0, errors.New("configbus: handle is closed")
	}
	e, ok := h.entry(key)
	if !ok || e.isString {
		return 0, errors.New("configbus: no byte value under key " + key)
	}
	return copy(dst, e.bytes), nil
}

func (h *memHandle) PutBytes(key string, src []byte) (int, error) {
	if h.closed {
		return 0, errors.New("configbus: handle is closed")
	}
	if h.readOnly {
		return 0, ErrReadOnly
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.namespaces[h.ns][key] = memEntry{bytes: clone(src)}
	return len(src), nil
}

func (h *memHandle) GetString(key, fallback string) string {
	if h.closed {
		return fallback
	}
	e, ok := h.entry(key)
	if !ok || !e.isString {
		return fallback
	}
	return e.str
}

func (h *memHandle) Remove(key string) bool {
	if h.closed || h.readOnly {
		return false
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	_, ok := h.store.namespaces[h.ns][key]
	delete(h.store.namespaces[h.ns], key)
	return ok
}

func (h *memHandle) EraseAll() bool {
	if h.closed || h.readOnly {
		return false
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.namespaces[h.ns] = make(map[string]memEntry)
	return true
}

func (h *memHandle) Close() error {
	h.closed = true
	return nil
}

func clone(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
