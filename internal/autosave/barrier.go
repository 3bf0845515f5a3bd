package autosave

import (
	"context"
	"strings"
)

// Resource is anything a Barrier can drain.
type Resource interface {
	Name() string
	Dirty() bool
	// Wait joins an in-flight convergence loop.
	Wait(ctx context.Context) error
	// Flush forces convergence and waits for the outcome.
	Flush(ctx context.Context) error
}

var (
	_ Resource = (*Saver)(nil)
	_ Resource = (*Debounced)(nil)
)

// ResourceError is the failure of one resource during a flush.
type ResourceError struct {
	Resource string
	Err      error
}

func (e ResourceError) Error() string { return e.Resource + ": " + e.Err.Error() }

// FlushError lists every resource a flush could not settle.
type FlushError struct {
	Failed []ResourceError
}

func (e *FlushError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return "flush: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (e *FlushError) Unwrap() []error {
	out := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Err
	}
	return out
}

// Names returns the names of the failed resources.
func (e *FlushError) Names() []string {
	out := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Resource
	}
	return out
}

// Barrier drains a fixed set of resources before the editing context changes.
type Barrier struct {
	commit    func()
	resources []Resource
}

// NewBarrier returns a barrier over resources. commit, if set, is invoked
// first so an edit still open in the host UI is finished before draining.
func NewBarrier(commit func(), resources ...Resource) *Barrier {
	return &Barrier{commit: commit, resources: resources}
}

// FlushAll commits open edits, joins every running loop, then forces any
// resource that is still dirty. It returns nil once every resource is clean,
// a *FlushError naming each resource that failed, or ctx's error. Run it
// before holding the gate: a dirty resource cannot be forced under a held
// gate and is reported with ErrGateHeld.
func (b *Barrier) FlushAll(ctx context.Context) error {
	if b.commit != nil {
		b.commit()
	}

	// A failed join is not final: the resource stays dirty and is retried below.
	for _, r := range b.resources {
		if err := r.Wait(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}

	var failed []ResourceError
	for _, r := range b.resources {
		if !r.Dirty() {
			continue
		}
		if err := r.Flush(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed = append(failed, ResourceError{Resource: r.Name(), Err: err})
		}
	}
	if len(failed) > 0 {
		return &FlushError{Failed: failed}
	}
	return nil
}
