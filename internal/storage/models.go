package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Transformation is a saved TSF text. TSF is always stored in the current
// format version; SourceVersion records the version it was imported from.
type Transformation struct {
	ID            string
	Name          string
	TSF           string
	SourceVersion int
	Source        string // "cli", "api", "mcp", "import"
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
