// Package uuidgen supplies host.Host.GenerateUUID using google/uuid, the
// same generator the teacher codebase's request-ID and click-ID paths use.
package uuidgen

import "github.com/google/uuid"

// New returns a fresh random (v4) UUID string.
func New() string {
	return uuid.NewString()
}
