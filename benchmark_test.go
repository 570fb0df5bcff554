package configbus

import (
	"context"
	"testing"
)

func benchmarkDoc() *MapDocument {
	doc := NewDocument()
	doc.Set("heartRateMin", 120.0)
	doc.Set("heartRateMax", 180.0)
	doc.Set("firmwareVersion", "1.0.0")
	doc.Set("enabled", true)
	return doc
}

func BenchmarkSave(b *testing.B) {
	bus := New[string]("appcfg")
	ctx := context.Background()
	doc := benchmarkDoc()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := bus.Save(ctx, "pulsfan", doc); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
}

func BenchmarkLoad(b *testing.B) {
	bus := New[string]("appcfg")
	ctx := context.Background()
	if err := bus.Save(ctx, "pulsfan", benchmarkDoc()); err != nil {
		b.Fatalf("Save failed: %v", err)
	}

	doc := NewDocument()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := bus.Load(ctx, "pulsfan", doc); err != nil {
			b.Fatalf("Load failed: %v", err)
		}
	}
}

func BenchmarkSaveCompact_CallerBuffer(b *testing.B) {
	bus := New[string]("appcfg")
	ctx := context.Background()
	doc := benchmarkDoc()
	scratch := NewScratch(DefaultScratchCapacity)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := bus.SaveCompact(ctx, "pulsfan", doc, scratch); err != nil {
			b.Fatalf("SaveCompact failed: %v", err)
		}
	}
}
