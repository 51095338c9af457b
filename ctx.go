package main

import (
	"bytes"
	"debug/elf"
)

// ctx.go - the conversion context: a parsed input DSO plus the output
// object under construction.
//
// Grounded on original_source/src/ctx.go's Rust counterpart (Context::new).
// The input side uses the standard library's debug/elf rather than any
// third-party parser - no example repo in the corpus ships one; even
// davejbax/pixie's internal/grub reads ELF with debug/elf and only adds
// struc for the wire structs debug/elf itself does not expose a decoder
// for (raw .rela entries). The output side is this module's own Object
// (objwriter.go).

// Context carries the parsed input file and the output object being built
// by the pass pipeline.
type Context struct {
	Input  *elf.File
	Output *Object
}

// NewContext parses data as an ELF shared object and creates a matching
// output Object. It rejects any input that is not ET_DYN, or whose class
// or machine this version does not support.
func NewContext(data []byte) (*Context, error) {
	input, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, &ReadError{Detail: "parsing input as ELF", Err: err}
	}

	if input.Type != elf.ET_DYN {
		return nil, &UnsupportedBinaryFormatError{
			Detail: "input is not a shared object (ET_DYN): " + input.Type.String(),
		}
	}

	switch input.Machine {
	case elf.EM_386, elf.EM_X86_64:
	default:
		return nil, &UnsupportedArchError{Machine: input.Machine.String()}
	}

	output := NewObject(byteOrderOf(input), input.Class, input.Machine)

	return &Context{Input: input, Output: output}, nil
}
