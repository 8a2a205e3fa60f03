// Package persistence implements the notebook structure contract a
// session coordinator depends on for saving/loading notebook shape (spec
// §6.3): ids, kinds, current source, and list position — never execution
// state, which is derived client-side from the notification stream and
// is never persisted.
package persistence

// CellStructure is one cell's persisted shape.
type CellStructure struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
	Code string `yaml:"code"`
}

// NotebookStructure is the minimal persisted notebook shape a coordinator
// maintains (spec §4.4): ids, kinds, current source, and position order.
// Cells is ordered; that order is presentational only (spec §9 open
// question) and is never consulted by the graph or kernel.
type NotebookStructure struct {
	ID               string          `yaml:"id"`
	Name             string          `yaml:"name"`
	DBConnString     string          `yaml:"db_conn_string,omitempty"`
	Cells            []CellStructure `yaml:"cells"`
}

// Store loads and saves a NotebookStructure by id.
type Store interface {
	Load(id string) (NotebookStructure, error)
	Save(structure NotebookStructure) error
}

// IndexOf returns the position of cellID in s.Cells, or -1 if absent.
func (s *NotebookStructure) IndexOf(cellID string) int {
	for i, c := range s.Cells {
		if c.ID == cellID {
			return i
		}
	}
	return -1
}

// UpsertCell inserts a new cell (after afterCellID, or at the end if
// afterCellID is empty/not found) or updates an existing one's code.
func (s *NotebookStructure) UpsertCell(id, kind, code, afterCellID string) {
	if i := s.IndexOf(id); i >= 0 {
		s.Cells[i].Code = code
		return
	}

	entry := CellStructure{ID: id, Kind: kind, Code: code}
	if afterCellID == "" {
		s.Cells = append(s.Cells, entry)
		return
	}
	at := s.IndexOf(afterCellID)
	if at < 0 {
		s.Cells = append(s.Cells, entry)
		return
	}
	s.Cells = append(s.Cells[:at+1], append([]CellStructure{entry}, s.Cells[at+1:]...)...)
}

// RemoveCell deletes a cell by id, no-op if absent.
func (s *NotebookStructure) RemoveCell(id string) {
	i := s.IndexOf(id)
	if i < 0 {
		return
	}
	s.Cells = append(s.Cells[:i], s.Cells[i+1:]...)
}
