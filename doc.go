// Package configbus provides per-module configuration persistence on
// top of a namespaced flash-backed key-value store.
//
// # Overview
//
// Each firmware module stores one structured configuration record under
// a short string identifier. A record may exist on disk in three
// encodings that accumulated over the project's history: a legacy
// string serialization, the same text stored as a byte blob, and a
// compact binary blob under a suffixed key. configbus reads whichever
// form is present, prefers the compact form for new writes, and
// opportunistically upgrades older forms in place after a successful
// read.
//
// # Architecture
//
// The package separates three concerns:
//
//  1. Bus[TModule]: namespace-scoped facade for load/save/clear
//  2. Driver: backing store interface for persistence
//  3. Document: the opaque value tree being persisted
//
// The bus never inspects document contents; it only clears them or
// runs them through one of the two serializations.
//
// # Quick Start
//
//	bus := configbus.New[string]("appcfg")
//	ctx := context.Background()
//
//	doc := configbus.NewDocument()
//	if err := bus.Load(ctx, "pulsfan", doc); err != nil {
//		// Apply defaults; doc is guaranteed empty here.
//		doc.Set("heartRateMin", 120)
//		doc.Set("heartRateMax", 180)
//	}
//
//	doc.Set("heartRateMax", 200)
//	bus.Save(ctx, "pulsfan", doc)
//
// # Key Layout
//
// The primary key is the module id itself and holds the text forms.
// The compact form lives under the module id plus a ":mp" suffix.
// The backing store caps keys at 15 characters, so module ids are
// limited to MaxModuleIDLen (12) characters when the compact form is
// in play.
//
// # Type-Safe Module Ids
//
// Use custom types for compile-time id validation:
//
//	type ModuleID string
//
//	bus := configbus.New[ModuleID]("appcfg")
//	bus.Load(ctx, ModuleID("blecfg"), doc)
//
// # Memory Discipline
//
// Every encode and decode stages through a fixed-capacity
// ScratchBuffer. Load and Save allocate one internally (2048 bytes by
// default, tunable via WithScratchCapacity); LoadCompact and
// SaveCompact take one from the caller. A record larger than scratch
// fails with ErrBufferTooSmall rather than growing the buffer.
//
// # Concurrency
//
// Operations are synchronous and open a fresh store session each
// phase. The bus assumes the driver serializes its own access and that
// callers do not operate on the same module id from two goroutines at
// once.
//
// # Error Handling
//
// Failures are sentinel errors checked with errors.Is:
//
//	err := bus.Load(ctx, "missing", doc)
//	if errors.Is(err, configbus.ErrNotFound) {
//		// Never saved; doc is empty, apply defaults.
//	}
//
// Available errors: ErrInvalidArgument, ErrKeyTooLong,
// ErrStoreUnavailable, ErrNotFound, ErrBufferTooSmall, ErrEncodeFailed,
// ErrDecodeFailed, ErrSizeMismatch. The document is cleared on every
// load failure so callers can apply defaults unconditionally.
package configbus
