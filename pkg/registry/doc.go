// Package registry holds persistent component state keyed by path.
//
// Instances are created lazily the first time a render reaches their path
// (GetOrInsert) and are mutated in place when messages are dispatched to
// them (Handle.Update). The registry lock guards only lookups, inserts and
// sweeps; it is never held while a component's View or Update runs, so a
// View that causes child lookups cannot deadlock.
//
// Each Handle has its own lock. A panic inside View or Update poisons the
// handle: the panic still propagates, and later calls return ErrPoisoned.
package registry
