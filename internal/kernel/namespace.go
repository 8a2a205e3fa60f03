package kernel

import "github.com/puzpuzpuz/xsync/v3"

// Namespace is the kernel's persistent user namespace (spec §4.3 "Kernel
// Namespace"): the single store of variable values surviving across cell
// runs, shared by every cell in a session. It is exclusively read/written
// from the kernel's single request-processing goroutine except for the
// ambient introspection path (e.g. a future "inspect variable" RPC), hence
// the concurrent map rather than a plain map+mutex.
type Namespace struct {
	vars *xsync.MapOf[string, any]
}

// NewNamespace creates an empty Namespace.
func NewNamespace() *Namespace {
	return &Namespace{vars: xsync.NewMapOf[string, any]()}
}

// Get returns the current value bound to name, if any.
func (n *Namespace) Get(name string) (any, bool) {
	return n.vars.Load(name)
}

// Set binds name to value, overwriting any prior binding.
func (n *Namespace) Set(name string, value any) {
	n.vars.Store(name, value)
}

// Delete removes a binding, e.g. when a cell that wrote it is deleted and
// no other cell has taken over production of that name.
func (n *Namespace) Delete(name string) {
	n.vars.Delete(name)
}

// Snapshot returns a shallow copy of all current bindings, used to build
// the interpreter's globals dict before running a cell (spec §4.3.4).
func (n *Namespace) Snapshot() map[string]any {
	out := make(map[string]any, n.vars.Size())
	n.vars.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// Merge applies a bulk update, used after a cell finishes executing to
// absorb the new/changed bindings it produced.
func (n *Namespace) Merge(updates map[string]any) {
	for k, v := range updates {
		n.vars.Store(k, v)
	}
}
