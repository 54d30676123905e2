package shared

import "errors"

var (
	// ErrNotFound indicates resource absent or hidden from the caller.
	// Ownership failures map here on purpose so inaccessible items are
	// indistinguishable from nonexistent ones.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates an endpoint role gate rejection.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateName indicates an item or tag name collision.
	ErrDuplicateName = errors.New("name already exists")
	// ErrValidation indicates malformed input rejected before persistence.
	ErrValidation = errors.New("validation failed")
	// ErrUpload indicates the external image store rejected an upload.
	ErrUpload = errors.New("upload failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
