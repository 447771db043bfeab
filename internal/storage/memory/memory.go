// Package memory provides mutex-guarded in-memory implementations of the
// encounter store and content interfaces. They back unit tests and the
// offline simulator; production binaries use the postgres package.
//
// All implementations copy on the way in and out, so callers never share
// mutable state with the store.
package memory
