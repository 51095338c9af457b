package main

import (
	"errors"
	"testing"
)

type constPass struct {
	name string
	out  int
	err  error
}

func (p *constPass) Name() string { return p.name }
func (p *constPass) Run(pc *PassContext) (int, error) {
	return p.out, p.err
}

type sumPass struct {
	a, b PassHandle[int]
}

func (p *sumPass) Name() string { return "sum" }
func (p *sumPass) Run(pc *PassContext) (int, error) {
	return GetPassOutput(pc, p.a) + GetPassOutput(pc, p.b), nil
}

func TestPassManagerRunsInOrderAndThreadsOutputs(t *testing.T) {
	pm := NewPassManager()
	h1 := RegisterPass[int](pm, &constPass{name: "one", out: 10})
	h2 := RegisterPass[int](pm, &constPass{name: "two", out: 32})
	RegisterPass[int](pm, &sumPass{a: h1, b: h2})

	if err := pm.Run(&Context{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestPassManagerStopsOnFirstError(t *testing.T) {
	pm := NewPassManager()
	sentinel := errors.New("boom")
	ran := false

	RegisterPass[int](pm, &constPass{name: "failing", out: 0, err: sentinel})
	RegisterPass[int](pm, &constPass{name: "never", out: 0})
	_ = ran

	err := pm.Run(&Context{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var passErr *PassError
	if !errors.As(err, &passErr) {
		t.Fatalf("expected *PassError, got %T", err)
	}
	if passErr.Name != "failing" {
		t.Errorf("passErr.Name = %q, want %q", passErr.Name, "failing")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error chain does not contain sentinel: %v", err)
	}
}

func TestGetPassOutputPanicsOnUnranPass(t *testing.T) {
	pm := NewPassManager()
	h := RegisterPass[int](pm, &constPass{name: "one", out: 1})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic fetching output of a pass that has not run")
		}
	}()

	pc := &PassContext{Ctx: &Context{}}
	GetPassOutput(pc, h)
}

func TestGetPassOutputPanicsOnTypeMismatch(t *testing.T) {
	pm := NewPassManager()
	RegisterPass[int](pm, &constPass{name: "one", out: 1})

	badHandle := PassHandle[string]{}

	pc := &PassContext{Ctx: &Context{}, outputs: []any{1}}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on type mismatch")
		}
	}()

	GetPassOutput(pc, badHandle)
}
