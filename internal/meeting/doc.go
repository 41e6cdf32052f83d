// Package meeting defines the persisted meeting record, the pure assembler
// that merges pipeline outputs into one record, and the embedded BadgerDB
// store with per-user reverse-chronological listing.
package meeting
