// Package pipeline implements the batch analysis pipeline for historical
// stock price tables: load, clean, filter, derive.
//
// Each stage is a pure transformation that takes a table and returns a new
// one, so stages can be tested in isolation and composed by Pipeline.Run.
// NaN is the missing-value marker throughout; the cleaner removes records
// with missing source fields and the derivation stage removes records whose
// day-over-day metrics are undefined.
package pipeline
