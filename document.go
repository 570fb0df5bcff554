package configbus

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Document is the structured record a module persists. The bus treats
// it as an opaque value tree: it only ever clears it or runs it through
// one of the two serializations. Encoders write into the operation's
// scratch buffer and must propagate the writer's error unchanged so the
// resolver can tell overflow apart from a malformed document.
type Document interface {
	// Clear resets the document to empty.
	Clear()

	// EncodeCompact writes the compact-binary form to w.
	EncodeCompact(w io.Writer) error

	// EncodeText writes the textual form to w.
	EncodeText(w io.Writer) error

	// DecodeCompact replaces the document's content from compact bytes.
	DecodeCompact(src []byte) error

	// DecodeText replaces the document's content from textual bytes.
	DecodeText(src []byte) error
}

// MapDocument is the default Document: a string-keyed value tree whose
// compact form is MessagePack and whose textual form is JSON.
type MapDocument struct {
	m map[string]interface{}
}

// NewDocument creates an empty MapDocument.
func NewDocument() *MapDocument {
	return &MapDocument{m: make(map[string]interface{})}
}

// Clear resets the document to empty.
func (d *MapDocument) Clear() {
	d.m = make(map[string]interface{})
}

// Set stores a value under key, replacing any previous value.
func (d *MapDocument) Set(key string, value interface{}) {
	if d.m == nil {
		d.m = make(map[string]interface{})
	}
	d.m[key] = value
}

// Get returns the value under key and whether it is present.
func (d *MapDocument) Get(key string) (interface{}, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Len returns the number of top-level entries.
func (d *MapDocument) Len() int { return len(d.m) }

// EncodeCompact writes the MessagePack form. Map keys are sorted so the
// same tree always produces the same bytes.
func (d *MapDocument) EncodeCompact(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	return enc.Encode(d.m)
}

// EncodeText writes the JSON form.
func (d *MapDocument) EncodeText(w io.Writer) error {
	return json.NewEncoder(w).Encode(d.m)
}

// DecodeCompact replaces the content from MessagePack bytes.
func (d *MapDocument) DecodeCompact(src []byte) error {
	var m map[string]interface{}
	if err := msgpack.Unmarshal(src, &m); err != nil {
		return fmt.Errorf("%w: messagepack: %v", ErrDecodeFailed, err)
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	d.m = m
	return nil
}

// DecodeText replaces the content from JSON bytes.
func (d *MapDocument) DecodeText(src []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(src, &m); err != nil {
		return fmt.Errorf("%w: json: %v", ErrDecodeFailed, err)
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	d.m = m
	return nil
}
