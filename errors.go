package main

import "fmt"

// errors.go - error taxonomy for the DSO-to-relocatable-object conversion.
//
// Each error kind below corresponds to one of the fatal conditions a pass
// or the conversion context can raise. The kinds that carry an inner cause
// (ReadError, PassError) expose it through Unwrap so callers can still
// errors.Is/errors.As through to the original failure.

// UnsupportedBinaryFormatError is returned when the input is an ELF file
// that isn't a shared object (ET_DYN). Input that does not parse as ELF,
// including other container formats, is reported as a ReadError instead.
type UnsupportedBinaryFormatError struct {
	Detail string
}

func (e *UnsupportedBinaryFormatError) Error() string {
	return fmt.Sprintf("unsupported input format: %s", e.Detail)
}

// UnsupportedArchError is returned when the input's ELF machine is not one
// the conversion passes can target.
type UnsupportedArchError struct {
	Machine string
}

func (e *UnsupportedArchError) Error() string {
	return fmt.Sprintf("unsupported architecture: %s", e.Machine)
}

// UnsupportedRelocError is returned by the relocation conversion pass when
// it encounters a dynamic relocation kind outside its dispatch table.
type UnsupportedRelocError struct {
	Kind uint32
}

func (e *UnsupportedRelocError) Error() string {
	return fmt.Sprintf("unsupported reloc: %d", e.Kind)
}

// ReadError wraps a failure to decode some input sub-structure (section
// data, name bytes, symbol/relocation entries).
type ReadError struct {
	Detail string
	Err    error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input read error: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("input read error: %s", e.Detail)
}

func (e *ReadError) Unwrap() error { return e.Err }

// PassError wraps any error returned by a pass with the name of the pass
// that produced it, so the pipeline's caller can report which stage of the
// conversion failed.
type PassError struct {
	Name string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %q failed: %v", e.Name, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }
