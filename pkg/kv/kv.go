// Package kv provides the durable key-value layer under the MindHarbor
// stores. Keys are hierarchical paths represented as string slices
// (e.g. ["doc", "doc_0"]) and encoded with a configurable separator byte.
//
// Three implementations are provided: Badger (BadgerDB v4, the default
// on-disk engine), SQLite (modernc.org/sqlite, single-file), and Memory
// (map-backed, for tests).
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path represented as a slice of string segments.
// Segments must not contain the configured separator byte; encoding
// panics if one does.
type Key []string

// String returns the key joined with ':' for display and debug output.
// Storage encoding uses Options.encode, which may use a different separator.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry is a key-value pair returned by List and consumed by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is the contract the persistence layer satisfies. Writes are
// visible to subsequent reads once the call returns; BatchSet and
// BatchDelete are atomic per call.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates over all entries whose key starts with the given
	// prefix, in lexicographic order of the encoded key. A nil prefix
	// lists the whole store.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet atomically stores multiple key-value pairs.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete atomically removes multiple keys.
	BatchDelete(ctx context.Context, keys []Key) error

	// Close releases any resources held by the store.
	Close() error
}

// DefaultSeparator is the separator byte used when Options is nil or zero.
const DefaultSeparator byte = ':'

// Options configures key encoding shared by all Store implementations.
type Options struct {
	// Separator joins key segments in the encoded representation.
	// Defaults to ':'. Callers whose segment values may contain ':'
	// (document ids, user ids) should pick a byte that cannot appear
	// in them, e.g. 0x1F.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

// encode converts a Key to its stored byte representation. It panics if
// a segment contains the separator, since such a key could alias another.
func (o *Options) encode(k Key) []byte {
	s := o.sep()
	n := 0
	for i, seg := range k {
		if strings.IndexByte(seg, s) >= 0 {
			panic(fmt.Sprintf("kv: key segment %q contains separator %q", seg, s))
		}
		if i > 0 {
			n++
		}
		n += len(seg)
	}
	buf := make([]byte, 0, n)
	for i, seg := range k {
		if i > 0 {
			buf = append(buf, s)
		}
		buf = append(buf, seg...)
	}
	return buf
}

// decode converts a stored byte representation back to a Key.
func (o *Options) decode(b []byte) Key {
	parts := bytes.Split(b, []byte{o.sep()})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}

// listPrefix returns the encoded scan prefix for a List call. The
// separator is appended so that prefix ["ab"] matches "ab:*" but not
// "abc:*". An empty prefix scans everything.
func (o *Options) listPrefix(prefix Key) []byte {
	p := o.encode(prefix)
	if len(p) == 0 {
		return nil
	}
	return append(p, o.sep())
}
