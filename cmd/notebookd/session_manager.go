package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/smilemakc/cellgraph/internal/coordinator"
	"github.com/smilemakc/cellgraph/internal/persistence"
)

// sessionManager owns the host process's half of spec §4.3's "exactly two
// OS processes per session": for each notebook id it lazily spawns a
// dedicated kernel child and a Coordinator, and tears both down together.
//
// Grounded on the teacher's cmd/server/main.go wiring a single long-lived
// executor+store pair at startup; generalized here to one kernel+
// coordinator pair per notebook since spec §3's session scope is "one
// notebook", not the whole process.
type sessionManager struct {
	selfPath   string
	pythonBin  string
	store      persistence.Store
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	coord  *coordinator.Coordinator
	kernel *kernelProcess
	cancel context.CancelFunc
}

func newSessionManager(selfPath, pythonBin string, store persistence.Store, log zerolog.Logger) *sessionManager {
	return &sessionManager{
		selfPath:  selfPath,
		pythonBin: pythonBin,
		store:     store,
		log:       log,
		sessions:  make(map[string]*session),
	}
}

// Get returns the existing session for notebookID, or opens a new one:
// loads its persisted structure (falling back to an empty notebook if
// none exists yet), spawns a dedicated kernel process, re-registers every
// persisted cell so the kernel's graph matches the notebook on disk
// (spec §3: "rebuildable from notebook structure on session load"), and
// starts the coordinator's drain loop.
func (m *sessionManager) Get(notebookID string) (*coordinator.Coordinator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[notebookID]; ok {
		return s.coord, nil
	}

	structure, err := m.store.Load(notebookID)
	if err != nil {
		structure = persistence.NotebookStructure{ID: notebookID}
	}

	kp, err := spawnKernel(m.selfPath, "-python-bin", m.pythonBin)
	if err != nil {
		return nil, fmt.Errorf("notebookd: spawning kernel for session %q: %w", notebookID, err)
	}

	coord := coordinator.New(kp, m.store, structure, m.log.With().Str("notebook_id", notebookID).Logger())

	for _, cell := range structure.Cells {
		if err := coord.Handle(coordinator.ClientMessage{
			Type:     coordinator.ClientCellUpdate,
			CellID:   cell.ID,
			Code:     cell.Code,
			CellType: cell.Kind,
		}); err != nil {
			m.log.Warn().Err(err).Str("cell_id", cell.ID).Msg("failed to replay persisted cell on session open")
		}
	}
	if structure.DBConnString != "" {
		if err := coord.Handle(coordinator.ClientMessage{Type: coordinator.ClientUpdateDBConnection, ConnectionString: structure.DBConnString}); err != nil {
			m.log.Warn().Err(err).Msg("failed to replay persisted db connection on session open")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go coord.Drain(ctx)

	m.sessions[notebookID] = &session{coord: coord, kernel: kp, cancel: cancel}
	m.log.Info().Str("notebook_id", notebookID).Msg("session opened")
	return coord, nil
}

// CloseAll stops every session's drain loop and kills its kernel process,
// used during graceful process shutdown.
func (m *sessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.cancel()
		if err := s.kernel.Kill(); err != nil {
			m.log.Warn().Err(err).Str("notebook_id", id).Msg("error killing kernel on shutdown")
		}
	}
	m.sessions = make(map[string]*session)
}
