// Package domain holds the types shared across the extractor, graph, kernel
// and coordinator packages: cells, outputs, and the error taxonomy.
package domain

import "github.com/google/uuid"

// Kind identifies the language a cell's source is written in.
type Kind string

const (
	KindPython Kind = "python"
	KindSQL    Kind = "sql"
)

// SystemCellID is the reserved sentinel used for notifications that are not
// scoped to a single cell (e.g. a db_configured status).
const SystemCellID = "__system__"

// Cell is the identity + current source of a registered cell. It carries no
// execution state — has_run, reads and writes live in the kernel's registry
// (see kernel.Registry) since they are derived, mutable auxiliaries rather
// than part of a cell's own identity.
type Cell struct {
	ID     string
	Kind   Kind
	Source string
}

// NewCellID mints an opaque cell identifier. Cell identifiers are strings at
// every boundary (wire protocol, graph nodes); uuid is merely the scheme
// used to mint fresh ones when a client doesn't supply its own.
func NewCellID() string {
	return uuid.NewString()
}
