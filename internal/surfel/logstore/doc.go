// Package logstore provides an optional durable LogSink for the surfel
// fusion engine's structured per-frame logger (spec.md §4.7), backed by
// modernc.org/sqlite with schema migrations managed by golang-migrate.
// This is the same storage/migration pairing the teacher repo uses for
// its own domain stores (internal/db), repurposed here as a sink the
// core logger can optionally be handed — the fusion engine itself never
// imports this package.
package logstore
