package store

import domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"

// Sentinel errors returned by Store implementations. They carry domain codes
// so handlers can map them without knowing about the store.
var (
	ErrNotFound      = domainerrors.NotFound("resource not found")
	ErrAlreadyExists = domainerrors.AlreadyExists("resource already exists")
	ErrSlugTaken     = domainerrors.Conflict("slug already in use")
)
