package configbus

import (
	"context"
	"errors"
	"fmt"
)

// sourceForm tags which on-disk encoding a successful read came from.
type sourceForm int

const (
	formTextBytes sourceForm = iota
	formLegacyString
)

// Load implements the tiered read policy. See Bus.Load.
func (b *bus[TModule]) Load(ctx context.Context, module TModule, doc Document) error {
	return b.load(ctx, string(module), doc, NewScratch(b.scratchCap))
}

// LoadCompact reads only the compact form through the caller's scratch.
func (b *bus[TModule]) LoadCompact(ctx context.Context, module TModule, doc Document, scratch *ScratchBuffer) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidArgument)
	}
	if scratch == nil {
		doc.Clear()
		return fmt.Errorf("%w: nil scratch buffer", ErrInvalidArgument)
	}
	id := string(module)
	if id == "" {
		doc.Clear()
		return fmt.Errorf("%w: empty module id", ErrInvalidArgument)
	}

	if err := b.loadCompact(ctx, id, doc, scratch); err != nil {
		b.logf("debug", ctx, "LoadCompact %s failed: %v", id, err)
		doc.Clear()
		return err
	}
	return nil
}

// Save implements the write preference order. See Bus.Save.
func (b *bus[TModule]) Save(ctx context.Context, module TModule, doc Document) error {
	return b.save(ctx, string(module), doc, NewScratch(b.scratchCap))
}

// SaveCompact writes only the compact form through the caller's scratch.
func (b *bus[TModule]) SaveCompact(ctx context.Context, module TModule, doc Document, scratch *ScratchBuffer) error {
	id := string(module)
	if id == "" || doc == nil || scratch == nil {
		b.logf("error", ctx, "SaveCompact: invalid arguments")
		return fmt.Errorf("%w: module id, document and scratch are required", ErrInvalidArgument)
	}
	if err := b.saveCompact(ctx, id, doc, scratch); err != nil {
		b.logf("error", ctx, "SaveCompact %s failed: %v", id, err)
		return err
	}
	return nil
}

// load walks the read states: compact binary, then text bytes, then the
// legacy string form. Migrations run only after a successful decode, so
// a failed migration can never leave the on-disk state worse than it
// was before the call.
func (b *bus[TModule]) load(ctx context.Context, id string, doc Document, scratch *ScratchBuffer) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidArgument)
	}
	if id == "" {
		doc.Clear()
		return fmt.Errorf("%w: empty module id", ErrInvalidArgument)
	}

	var compactCorrupt error
	err := b.loadCompact(ctx, id, doc, scratch)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBufferTooSmall), errors.Is(err, ErrStoreUnavailable):
		// A compact record that exists but cannot be staged is a
		// resolver failure, not a reason to fall back.
		doc.Clear()
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrKeyTooLong):
		// No compact form present (or possible). Try the text forms.
	default:
		// Corrupted or truncated compact record: the text forms may
		// still hold a readable copy.
		compactCorrupt = err
		b.logf("warn", ctx, "load %s: compact record unreadable, trying text form: %v", id, err)
	}

	scratch.Reset()
	form, err := b.loadText(ctx, id, doc, scratch)
	if err != nil {
		doc.Clear()
		if errors.Is(err, ErrNotFound) && compactCorrupt != nil {
			// A corrupted record exists; report the corruption, not
			// absence.
			err = compactCorrupt
		}
		if !errors.Is(err, ErrNotFound) {
			b.logf("error", ctx, "load %s failed: %v", id, err)
		}
		return err
	}

	if form == formLegacyString {
		if merr := b.migrateLegacyToBytes(ctx, id, doc, scratch); merr != nil {
			b.logf("warn", ctx, "load %s: legacy string migration skipped: %v", id, merr)
		}
	}
	if merr := b.migrateToCompact(ctx, id, doc, scratch); merr != nil {
		b.logf("warn", ctx, "load %s: compact migration skipped: %v", id, merr)
	}
	return nil
}

// loadCompact reads and decodes the compact-binary form.
func (b *bus[TModule]) loadCompact(ctx context.Context, id string, doc Document, scratch *ScratchBuffer) error {
	key, err := compactKey(id)
	if err != nil {
		return err
	}

	h, err := b.openRead(ctx)
	if err != nil {
		return err
	}

	look := h.Stat(key)
	if look.Kind == ValueAbsent {
		h.Close()
		return fmt.Errorf("%w: no compact record for %q", ErrNotFound, id)
	}
	if look.Kind != ValueBytes || look.Size == 0 {
		h.Close()
		return fmt.Errorf("%w: compact record for %q is not a byte blob", ErrDecodeFailed, id)
	}

	dst, err := scratch.Slot(look.Size)
	if err != nil {
		h.Close()
		return err
	}
	n, err := h.GetBytes(key, dst)
	h.Close()
	if err != nil || n != look.Size {
		return fmt.Errorf("%w: compact read for %q got %d of %d bytes", ErrSizeMismatch, id, n, look.Size)
	}

	if err := doc.DecodeCompact(dst); err != nil {
		return decodeErr(err)
	}
	return nil
}

// loadText reads the primary key: a non-zero byte length means the
// text-bytes form; a string value means the legacy form. The backing
// store reports zero byte-length for both "absent" and "stored as a
// string", so classification goes through the tri-state Stat.
func (b *bus[TModule]) loadText(ctx context.Context, id string, doc Document, scratch *ScratchBuffer) (sourceForm, error) {
	h, err := b.openRead(ctx)
	if err != nil {
		return 0, err
	}

	look := h.Stat(id)
	switch look.Kind {
	case ValueAbsent:
		h.Close()
		return 0, fmt.Errorf("%w: no record for %q", ErrNotFound, id)

	case ValueBytes:
		if look.Size == 0 {
			h.Close()
			return 0, fmt.Errorf("%w: empty text record for %q", ErrDecodeFailed, id)
		}
		dst, err := scratch.Slot(look.Size)
		if err != nil {
			h.Close()
			return 0, err
		}
		n, err := h.GetBytes(id, dst)
		h.Close()
		if err != nil || n != look.Size {
			return 0, fmt.Errorf("%w: text read for %q got %d of %d bytes", ErrSizeMismatch, id, n, look.Size)
		}
		if err := doc.DecodeText(dst); err != nil {
			return 0, decodeErr(err)
		}
		return formTextBytes, nil

	default: // ValueString
		s := h.GetString(id, "")
		h.Close()
		if s == "" {
			return 0, fmt.Errorf("%w: empty legacy record for %q", ErrDecodeFailed, id)
		}
		if err := doc.DecodeText([]byte(s)); err != nil {
			return 0, decodeErr(err)
		}
		return formLegacyString, nil
	}
}

// save prefers the compact form; any compact failure falls back to a
// text-bytes write under the primary key. A stale text record may
// survive a successful compact write; reads always prefer compact.
func (b *bus[TModule]) save(ctx context.Context, id string, doc Document, scratch *ScratchBuffer) error {
	if id == "" || doc == nil {
		b.logf("error", ctx, "save: invalid arguments")
		return fmt.Errorf("%w: module id and document are required", ErrInvalidArgument)
	}

	cerr := b.saveCompact(ctx, id, doc, scratch)
	if cerr == nil {
		return nil
	}
	b.logf("warn", ctx, "save %s: compact write failed, falling back to text: %v", id, cerr)

	scratch.Reset()
	if err := doc.EncodeText(scratch); err != nil {
		return encodeErr(err)
	}
	h, err := b.openWrite(ctx)
	if err != nil {
		b.logf("error", ctx, "save %s failed: %v", id, err)
		return err
	}
	defer h.Close()

	n, err := h.PutBytes(id, scratch.Bytes())
	if err != nil {
		return fmt.Errorf("configbus: text write for %q: %w", id, err)
	}
	if n != scratch.Len() {
		return fmt.Errorf("%w: text write for %q wrote %d of %d bytes", ErrSizeMismatch, id, n, scratch.Len())
	}
	return nil
}

// saveCompact encodes and writes the compact-binary form.
func (b *bus[TModule]) saveCompact(ctx context.Context, id string, doc Document, scratch *ScratchBuffer) error {
	key, err := compactKey(id)
	if err != nil {
		return err
	}

	scratch.Reset()
	if err := doc.EncodeCompact(scratch); err != nil {
		return encodeErr(err)
	}
	if scratch.Len() == 0 {
		return fmt.Errorf("%w: compact encoder produced no bytes", ErrEncodeFailed)
	}

	h, err := b.openWrite(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	n, err := h.PutBytes(key, scratch.Bytes())
	if err != nil {
		return fmt.Errorf("configbus: compact write for %q: %w", id, err)
	}
	if n != scratch.Len() {
		return fmt.Errorf("%w: compact write for %q wrote %d of %d bytes", ErrSizeMismatch, id, n, scratch.Len())
	}
	return nil
}

// migrateLegacyToBytes rewrites a legacy string record as text bytes
// under the same primary key. The string value is removed first so no
// stale length ambiguity remains.
func (b *bus[TModule]) migrateLegacyToBytes(ctx context.Context, id string, doc Document, scratch *ScratchBuffer) error {
	scratch.Reset()
	if err := doc.EncodeText(scratch); err != nil {
		return encodeErr(err)
	}

	h, err := b.openWrite(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	h.Remove(id)
	n, err := h.PutBytes(id, scratch.Bytes())
	if err != nil {
		return fmt.Errorf("configbus: migration write for %q: %w", id, err)
	}
	if n != scratch.Len() {
		return fmt.Errorf("%w: migration write for %q wrote %d of %d bytes", ErrSizeMismatch, id, n, scratch.Len())
	}
	b.logf("info", ctx, "load %s: migrated legacy string to text bytes", id)
	return nil
}

// migrateToCompact writes the compact form under the compact key when
// none exists yet. It never touches the primary key.
func (b *bus[TModule]) migrateToCompact(ctx context.Context, id string, doc Document, scratch *ScratchBuffer) error {
	key, err := compactKey(id)
	if err != nil {
		return err
	}

	h, err := b.openWrite(ctx)
	if err != nil {
		return err
	}
	if h.Contains(key) {
		h.Close()
		return nil
	}
	h.Close()

	if err := b.saveCompact(ctx, id, doc, scratch); err != nil {
		return err
	}
	b.logf("info", ctx, "load %s: migrated text form to compact binary", id)
	return nil
}

// encodeErr keeps buffer overflow distinct from logical encode failure.
func encodeErr(err error) error {
	if errors.Is(err, ErrBufferTooSmall) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
}

// decodeErr tags decode failures from Document implementations that do
// not wrap the sentinel themselves.
func decodeErr(err error) error {
	if errors.Is(err, ErrDecodeFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
}
