package entity

import (
	"github.com/google/uuid"
)

// Document is one uploaded bidding PDF, staged as a temporary file for the
// lifetime of a single pipeline run.
type Document struct {
	ID       uuid.UUID
	Filename string
	Path     string
	Size     int64
}
