// Package storage abstracts the destinations corpus snapshots are
// exported to and imported from. A FileStore is a flat, slash-separated
// file namespace: Local keeps files under a root directory, S3 maps
// them to object keys in a bucket. The CLI picks an implementation from
// the destination string (an s3:// URI or a filesystem path), so corpus
// backups move between disk and object storage without code changes.
package storage

import (
	"context"
	"io"
)

// FileStore is the contract snapshot destinations satisfy.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file. The caller closes the ReadCloser.
	// Missing files yield an error wrapping os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or truncates the named file, creating parents as
	// needed. Data is staged until the WriteCloser is closed; Close
	// commits it. A write the caller wants to abandon goes through
	// Abort instead.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Deleting an absent file is not an
	// error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// Abort discards a write in progress instead of committing it. Close on
// a FileStore writer commits whatever was written, so an export that
// fails midway must come through here or it would replace the previous
// snapshot with a truncated one. Writers that cannot discard staged
// data are closed.
func Abort(w io.WriteCloser) error {
	if a, ok := w.(interface{ Abort() error }); ok {
		return a.Abort()
	}
	return w.Close()
}
