// Package hwio is the runtime support for generated register accessors.
//
// Generated packages never touch device memory directly. Every hardware
// access goes through Reg32, whose Load and Store use sync/atomic so the
// compiler cannot cache, elide or reorder device reads and writes. The
// package also owns the transaction commit arithmetic (MergeValue,
// Commit) so that the planner, the generated code and the tests all
// share one definition of it.
//
// # Concurrency
//
// Reg32 Load and Store are individually atomic. There is no locking
// above that: hardware mutates registers concurrently with software,
// and a read-modify-write commit is not atomic as a whole. Callers that
// share a register between goroutines must coordinate externally, and a
// transaction value itself is not safe for concurrent use.
package hwio
