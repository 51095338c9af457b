package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"testing"
)

func TestNewContextRejectsGarbageInput(t *testing.T) {
	_, err := NewContext([]byte("not an ELF file at all"))
	if err == nil {
		t.Fatal("expected error for non-ELF input")
	}
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected *ReadError, got %T: %v", err, err)
	}
}

func TestNewContextRejectsNonSharedObject(t *testing.T) {
	data := buildMinimalELF(t, elf.ET_EXEC, elf.EM_X86_64)

	_, err := NewContext(data)
	if err == nil {
		t.Fatal("expected error for a non-ET_DYN input")
	}
	var formatErr *UnsupportedBinaryFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected *UnsupportedBinaryFormatError, got %T: %v", err, err)
	}
}

func TestNewContextRejectsUnsupportedMachine(t *testing.T) {
	data := buildMinimalELF(t, elf.ET_DYN, elf.EM_ARM)

	_, err := NewContext(data)
	if err == nil {
		t.Fatal("expected error for an unsupported machine")
	}
	var archErr *UnsupportedArchError
	if !errors.As(err, &archErr) {
		t.Fatalf("expected *UnsupportedArchError, got %T: %v", err, err)
	}
}

func TestNewContextAcceptsX86_64SharedObject(t *testing.T) {
	data := buildMinimalELF(t, elf.ET_DYN, elf.EM_X86_64)

	ctx, err := NewContext(data)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	if ctx.Output.Class != elf.ELFCLASS64 {
		t.Errorf("Output.Class = %v, want ELFCLASS64", ctx.Output.Class)
	}
	if ctx.Output.Machine != elf.EM_X86_64 {
		t.Errorf("Output.Machine = %v, want EM_X86_64", ctx.Output.Machine)
	}
}

// buildMinimalELF assembles the smallest possible well-formed ELF64 header
// (no sections, no program headers) with the given type and machine, using
// this module's own pack() helper - the same struc-based encoding the
// object writer itself uses, so the test stays independent of any
// synthetic elf.Section machinery (whose Data()/Open() depend on debug/elf
// unexported fields and cannot be faked from outside that package).
func buildMinimalELF(t *testing.T, typ elf.Type, machine elf.Machine) []byte {
	t.Helper()

	hdr := elf.Header64{
		Ident:     [16]byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)},
		Type:      uint16(typ),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     64,
		Ehsize:    64,
		Shentsize: 64,
		Shnum:     1,
		Shstrndx:  0,
	}

	var buf bytes.Buffer
	if err := pack(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("packing test ELF header: %v", err)
	}

	nullSection := elf.Section64{}
	if err := pack(&buf, binary.LittleEndian, &nullSection); err != nil {
		t.Fatalf("packing test null section header: %v", err)
	}

	return buf.Bytes()
}
