package repository

import "errors"

// ErrReferenced is returned by deletion methods when the row is still
// referenced by at least one ticket. Callers map it to a referential
// conflict; the row is left untouched.
var ErrReferenced = errors.New("referenced by existing tickets")

// ErrStaleUpdate is returned by guarded updates when the row changed since
// the caller read it. The write is not applied.
var ErrStaleUpdate = errors.New("row changed since read")
