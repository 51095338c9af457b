package main

import "fmt"

// pass.go - the pass manager: a typed, ordered pipeline of conversion
// passes with checked cross-pass data flow.
//
// Grounded on original_source/src/pass.rs (Lancern/soda's PassManager /
// PassContext / PassHandle). Rust's PhantomData + Any-downcast type
// erasure becomes, in Go, a PassHandle[O] that records the registering
// pass's output type at RegisterPass time and asserts it back at
// GetPassOutput time; a mismatch panics exactly as the Rust "unwrap()" on
// a bad downcast would.

// Pass is a single named unit of work. O is the type of value it publishes
// for later passes to consume.
type Pass[O any] interface {
	// Name identifies the pass in error messages.
	Name() string

	// Run executes the pass against the given context, returning its
	// published output on success.
	Run(pc *PassContext) (O, error)
}

// PassHandle is an opaque, copyable reference to a pass registered with a
// PassManager. It is valid only for the PassManager that produced it, and
// only once the referenced pass has run.
type PassHandle[O any] struct {
	idx int
}

// PassContext is handed to a running pass. It exposes the conversion
// context plus read-only access to every earlier pass's output.
type PassContext struct {
	Ctx *Context

	outputs []any
}

// GetPassOutput fetches the output published by an earlier pass. It panics
// if the handle refers to a pass that has not run yet in this pipeline, or
// if the stored output does not have the handle's static type - both are
// programming errors, not recoverable conditions (see spec.md ss4.1).
func GetPassOutput[O any](pc *PassContext, h PassHandle[O]) O {
	if h.idx < 0 || h.idx >= len(pc.outputs) {
		panic(fmt.Sprintf("pass handle %d refers to a pass that has not run", h.idx))
	}
	out, ok := pc.outputs[h.idx].(O)
	if !ok {
		panic(fmt.Sprintf("pass handle %d type mismatch: stored %T", h.idx, pc.outputs[h.idx]))
	}
	return out
}

type registeredPass struct {
	name string
	run  func(pc *PassContext) (any, error)
}

// PassManager owns a sequence of passes and runs them in registration
// order, threading each pass's typed output to every later pass.
type PassManager struct {
	passes []registeredPass
}

// NewPassManager creates an empty pipeline.
func NewPassManager() *PassManager {
	return &PassManager{}
}

// RegisterPass appends a pass to the end of the pipeline and returns a
// handle typed with its output. There is no ordering constraint beyond
// insertion order - a pass declares its prerequisites simply by holding
// handles returned from earlier RegisterPass calls.
func RegisterPass[O any](pm *PassManager, p Pass[O]) PassHandle[O] {
	idx := len(pm.passes)
	pm.passes = append(pm.passes, registeredPass{
		name: p.Name(),
		run: func(pc *PassContext) (any, error) {
			return p.Run(pc)
		},
	})
	return PassHandle[O]{idx: idx}
}

// Run executes every registered pass in insertion order against ctx. On
// the first failing pass, execution halts and the error is wrapped with
// that pass's name; no later pass runs and no rollback of output-object
// mutations is attempted.
func (pm *PassManager) Run(ctx *Context) error {
	outputs := make([]any, 0, len(pm.passes))
	for _, rp := range pm.passes {
		pc := &PassContext{Ctx: ctx, outputs: outputs}
		out, err := rp.run(pc)
		if err != nil {
			return &PassError{Name: rp.name, Err: err}
		}
		outputs = append(outputs, out)
	}
	return nil
}
