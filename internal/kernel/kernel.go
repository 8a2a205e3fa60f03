package kernel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/smilemakc/cellgraph/internal/domain"
	"github.com/smilemakc/cellgraph/internal/extractor"
	"github.com/smilemakc/cellgraph/internal/graph"
	"github.com/smilemakc/cellgraph/internal/kernel/pyhost"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cellgraph/kernel")

// Kernel owns the dependency graph, the cell registry, the has_run
// tracking, and the user namespace for one session (spec §4.3). It is
// driven by a single-threaded request loop — its request methods
// (RegisterCell, CreateCell, DeleteCell, Execute, SetDBConfig) are never
// called concurrently with each other, mirroring "the kernel is a
// single-threaded blocking loop" (spec §6.5).
//
// Grounded on the teacher's internal/application/executor/engine.go
// (single Engine type coordinating graph + state + notifications), with
// the executor's multi-worker pool collapsed to a single inline loop since
// notebook cells must run serially on one thread.
type Kernel struct {
	graph    *graph.Graph
	registry *Registry
	ns       *Namespace
	sink     Sink
	log      zerolog.Logger

	py  *pyhost.Host
	sql *SQLEngine
}

// Option configures optional Kernel dependencies.
type Option func(*Kernel)

// WithPythonHost wires a live pyhost subprocess for Python cell execution.
// Tests that only exercise SQL cells or graph/registry effects may omit
// this.
func WithPythonHost(h *pyhost.Host) Option {
	return func(k *Kernel) { k.py = h }
}

// WithLogger overrides the default (disabled) zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(k *Kernel) { k.log = l }
}

// New constructs a Kernel streaming notifications to sink.
func New(sink Sink, opts ...Option) *Kernel {
	k := &Kernel{
		graph:    graph.New(),
		registry: NewRegistry(),
		ns:       NewNamespace(),
		sink:     sink,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Close releases the kernel's subprocess and database resources.
func (k *Kernel) Close() error {
	var firstErr error
	if k.py != nil {
		if err := k.py.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := k.sql.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// RegisterCell implements the register_cell request (spec §4.3.1):
// re-extract deps, update the graph, store code, invalidate has_run for
// the cell and its descendants, then emit metadata + status notifications.
func (k *Kernel) RegisterCell(ctx context.Context, id string, kind domain.Kind, source string) {
	ctx, span := tracer.Start(ctx, "kernel.register_cell", trace.WithAttributes(
		attribute.String("cell.id", id), attribute.String("cell.kind", string(kind)),
	))
	defer span.End()

	e := newEmitter(k.sink)
	reads, writes := extractor.Extract(kind, source)

	descendants := k.graph.Descendants(id)

	if err := k.graph.UpdateCell(id, reads, writes); err != nil {
		k.log.Warn().Err(err).Str("cell_id", id).Msg("register_cell rejected: cycle")
		e.errorPayload(id, "CycleDetected", err.Error())
		e.status(id, domain.StatusBlocked)
		span.RecordError(err)
		return
	}

	k.registry.Put(id, kind, source, reads, writes)
	k.registry.SetHasRun(id, false)
	for d := range descendants {
		k.registry.SetHasRun(d, false)
	}
	// descendants as computed by the NEW edges (post-update) must also be
	// invalidated, since a cell can gain new descendants in this same call.
	for d := range k.graph.Descendants(id) {
		k.registry.SetHasRun(d, false)
	}

	e.metadata(id, reads, writes)
	e.status(id, domain.StatusIdle)
}

// CreateCell implements create_cell: register id with empty code and no
// dependencies, status idle.
func (k *Kernel) CreateCell(ctx context.Context, id string, kind domain.Kind) {
	k.RegisterCell(ctx, id, kind, "")
}

// DeleteCell implements delete_cell (spec §4.3.1): capture affected =
// descendants(id) BEFORE mutation, remove id, emit a deletion ack, then
// re-execute each affected cell in topological order (they typically fail
// with a missing-name error since their reads are now unsatisfied).
func (k *Kernel) DeleteCell(ctx context.Context, id string) {
	ctx, span := tracer.Start(ctx, "kernel.delete_cell", trace.WithAttributes(attribute.String("cell.id", id)))
	defer span.End()

	order := deleteCascadeOrder(k.graph, id)
	_, _, _, deletedWrites, _ := k.registry.Get(id)

	k.graph.RemoveCell(id)
	k.registry.Remove(id)

	// Unbind every name the deleted cell produced that no remaining cell
	// now writes, so dependents re-run against a namespace without it.
	for name := range deletedWrites {
		if _, taken := k.graph.WriterOf(name); taken {
			continue
		}
		k.ns.Delete(name)
		if k.py != nil {
			_, _ = k.py.Exec(fmt.Sprintf("del %s", name))
		}
	}

	e := newEmitter(k.sink)
	e.status(id, domain.StatusSuccess) // deletion ack reuses the status channel

	for _, cellID := range order {
		k.runOne(ctx, cellID)
	}
}

// Execute implements the execute request (spec §4.3.1, §4.3.3): compute
// the stale-filtered execution order and run each cell in sequence,
// streaming notifications; fail fast with an error notification if id is
// not registered.
func (k *Kernel) Execute(ctx context.Context, id string) {
	ctx, span := tracer.Start(ctx, "kernel.execute", trace.WithAttributes(attribute.String("cell.id", id)))
	defer span.End()

	if !k.registry.Has(id) {
		e := newEmitter(k.sink)
		err := &domain.NotRegisteredError{CellID: id}
		e.status(id, domain.StatusError)
		e.errorPayload(id, "CellNotRegistered", err.Error())
		span.RecordError(err)
		return
	}

	order := staleFilteredOrder(k.graph, k.registry, id)
	for _, cellID := range order {
		k.runOne(ctx, cellID)
	}
}

// runOne executes a single cell and streams its notification sequence,
// per spec §4.3.2's per-cell ordering: status=running ->
// (stdout|stderr|output)* -> status=success|error -> (error)? -> metadata.
func (k *Kernel) runOne(ctx context.Context, id string) {
	_, span := tracer.Start(ctx, "kernel.run_cell", trace.WithAttributes(attribute.String("cell.id", id)))
	defer span.End()

	kind, source, reads, writes, ok := k.registry.Get(id)
	if !ok {
		return // deleted mid-cascade; nothing to run
	}

	e := newEmitter(k.sink)
	e.status(id, domain.StatusRunning)

	var success bool
	var errKind, errMsg string
	switch kind {
	case domain.KindPython:
		if k.py == nil {
			success, errKind, errMsg = false, "KernelError", "no python host configured"
			break
		}
		success, errKind, errMsg = runPython(k.py, k.ns, e, id, source)
	case domain.KindSQL:
		success, errKind, errMsg = k.runSQL(ctx, e, id, source)
	default:
		success, errKind, errMsg = false, "KernelError", fmt.Sprintf("unknown cell kind %q", kind)
	}

	// status=success|error must precede the error payload on the wire
	// (spec §4.3.2); runPython/runSQL report failures back here instead
	// of emitting them directly so that ordering holds.
	if success {
		e.status(id, domain.StatusSuccess)
		k.registry.SetHasRun(id, true)
	} else {
		e.status(id, domain.StatusError)
		e.errorPayload(id, errKind, errMsg)
		span.RecordError(fmt.Errorf("cell %s failed", id))
	}
	e.metadata(id, reads, writes)
}

func (k *Kernel) runSQL(ctx context.Context, e *emitter, id, source string) (success bool, errKind, errMsg string) {
	table, err := k.sql.Run(ctx, id, source, k.ns)
	if err != nil {
		return false, "SQLError", err.Error()
	}
	e.output(id, "application/json", table)
	return true, "", ""
}

// SetDBConfig implements set_db_config: configure the SQL backend for the
// session and emit a system-scoped status notification.
func (k *Kernel) SetDBConfig(ctx context.Context, dsn string) {
	ctx, span := tracer.Start(ctx, "kernel.set_db_config")
	defer span.End()

	e := newEmitter(k.sink)
	engine, err := Configure(ctx, dsn)
	if err != nil {
		e.status(domain.SystemCellID, domain.StatusError)
		e.errorPayload(domain.SystemCellID, "DBConfigError", err.Error())
		span.RecordError(err)
		return
	}
	if k.sql != nil {
		_ = k.sql.Close()
	}
	k.sql = engine
	e.status(domain.SystemCellID, domain.StatusDBReady)
}

// Shutdown implements the shutdown request: drain and release resources.
func (k *Kernel) Shutdown() error {
	return k.Close()
}
