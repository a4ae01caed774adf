// Package dataset implements the ingestion, normalization, indexing and
// export core for the military-activity CSV datasets.
//
// The package turns heterogeneous, multilingual CSV exports into a uniform
// canonical record model and serves date-bounded queries over it:
//
//	raw text -> Decode -> Parse -> Normalizer -> Index -> Engine.Query
//
// Two dataset kinds are supported, each with a declared column mapping
// (see schema.go): the comprehensive daily activity log and the
// strait-transit vessel log. The pipeline tolerates messy source files:
// byte-order marks, drifted header spellings, mixed sentinel values for
// "event did not occur" and malformed rows all degrade into diagnostics
// counters instead of load failures.
package dataset
