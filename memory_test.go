package configbus

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_PutGetBytes(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h, err := m.Open(ctx, "appcfg", false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	n, err := h.PutBytes("pulsfan", []byte("payload"))
	if err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	if n != 7 {
		t.Errorf("PutBytes n = %d, want 7", n)
	}

	look := h.Stat("pulsfan")
	if look.Kind != ValueBytes || look.Size != 7 {
		t.Fatalf("Stat = %+v, want bytes form of size 7", look)
	}

	dst := make([]byte, look.Size)
	n, err = h.GetBytes("pulsfan", dst)
	if err != nil || n != 7 {
		t.Fatalf("GetBytes n = %d, err = %v, want 7, nil", n, err)
	}
	if string(dst) != "payload" {
		t.Errorf("GetBytes = %q, want %q", dst, "payload")
	}
	_ = h.Close()
}

func TestMemory_StatTriState(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.SeedString("appcfg", "legacy", `{"a":1}`)

	h, _ := m.Open(ctx, "appcfg", false)
	defer h.Close()
	_, _ = h.PutBytes("blob", []byte("xy"))

	if got := h.Stat("missing").Kind; got != ValueAbsent {
		t.Errorf("Stat(missing).Kind = %v, want ValueAbsent", got)
	}
	if got := h.Stat("legacy").Kind; got != ValueString {
		t.Errorf("Stat(legacy).Kind = %v, want ValueString", got)
	}
	if got := h.Stat("blob"); got.Kind != ValueBytes || got.Size != 2 {
		t.Errorf("Stat(blob) = %+v, want bytes form of size 2", got)
	}
}

func TestMemory_GetString(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.SeedString("appcfg", "legacy", `{"a":1}`)

	h, _ := m.Open(ctx, "appcfg", true)
	defer h.Close()

	if got := h.GetString("legacy", ""); got != `{"a":1}` {
		t.Errorf("GetString(legacy) = %q, want %q", got, `{"a":1}`)
	}
	if got := h.GetString("missing", "fallback"); got != "fallback" {
		t.Errorf("GetString(missing) = %q, want fallback", got)
	}
}

func TestMemory_ReadOnlyHandle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rw, _ := m.Open(ctx, "appcfg", false)
	_, _ = rw.PutBytes("k", []byte("v"))
	_ = rw.Close()

	ro, _ := m.Open(ctx, "appcfg", true)
	defer ro.Close()

	if _, err := ro.PutBytes("k", []byte("w")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("PutBytes on read-only handle error = %v, want ErrReadOnly", err)
	}
	if ro.Remove("k") {
		t.Error("Remove on read-only handle should report false")
	}
	if ro.EraseAll() {
		t.Error("EraseAll on read-only handle should report false")
	}
	if !ro.Contains("k") {
		t.Error("read-only handle should still see existing keys")
	}
}

func TestMemory_NamespaceIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, _ := m.Open(ctx, "nsA", false)
	_, _ = a.PutBytes("k", []byte("from-a"))
	_ = a.Close()

	b, _ := m.Open(ctx, "nsB", false)
	defer b.Close()
	if b.Contains("k") {
		t.Error("namespace nsB should not see nsA's keys")
	}
	if !b.EraseAll() {
		t.Fatal("EraseAll failed")
	}

	a, _ = m.Open(ctx, "nsA", true)
	defer a.Close()
	if !a.Contains("k") {
		t.Error("EraseAll on nsB must not touch nsA")
	}
}

func TestMemory_Remove(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h, _ := m.Open(ctx, "appcfg", false)
	defer h.Close()
	_, _ = h.PutBytes("k", []byte("v"))

	if !h.Remove("k") {
		t.Error("Remove of existing key should report true")
	}
	if h.Remove("k") {
		t.Error("Remove of missing key should report false")
	}
}

func TestMemory_OpenEmptyNamespace(t *testing.T) {
	m := NewMemory()
	if _, err := m.Open(context.Background(), "", false); err == nil {
		t.Error("Open with empty namespace should fail")
	}
}

func TestMemory_ValueCopied(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h, _ := m.Open(ctx, "appcfg", false)
	defer h.Close()

	src := []byte("stable")
	_, _ = h.PutBytes("k", src)
	src[0] = 'X'

	dst := make([]byte, 6)
	_, _ = h.GetBytes("k", dst)
	if string(dst) != "stable" {
		t.Errorf("stored value mutated through caller slice: %q", dst)
	}
}

func TestMemory_ClosedHandle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h, _ := m.Open(ctx, "appcfg", false)
	_, _ = h.PutBytes("k", []byte("v"))
	_ = h.Close()

	if h.Contains("k") {
		t.Error("closed handle should not report keys")
	}
	if _, err := h.PutBytes("k", []byte("w")); err == nil {
		t.Error("PutBytes on closed handle should fail")
	}
	if got := h.Stat("k").Kind; got != ValueAbsent {
		t.Errorf("Stat on closed handle = %v, want ValueAbsent", got)
	}
}
