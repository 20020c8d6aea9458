// Package identifier issues the opaque per-submission tokens that end up in the QR code.
package identifier

import "github.com/google/uuid"

// Generator returns a fresh identifier on every call.
type Generator func() string

// New returns a random (version 4) UUID in its canonical 36 character form.
// Issued values are not recorded anywhere, so uniqueness is probabilistic only.
func New() string {
	return uuid.NewString()
}
