package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"
)

func TestStringTableDedupAndNullEntry(t *testing.T) {
	st := newStringTable()

	if idx := st.add(""); idx != 0 {
		t.Errorf("add(\"\") = %d, want 0", idx)
	}

	first := st.add("hello")
	second := st.add("world")
	third := st.add("hello")

	if first != third {
		t.Errorf("add(%q) not deduplicated: first=%d third=%d", "hello", first, third)
	}
	if second == first {
		t.Errorf("distinct strings got the same index: %d", first)
	}
}

func TestObjectPlanOrdersLocalsBeforeGlobals(t *testing.T) {
	o := NewObject(binary.LittleEndian, elf.ELFCLASS64, elf.EM_X86_64)

	globalID := o.AddSymbol(Symbol{Name: "global_sym", Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Section: SymSectionUndefined})
	localID := o.AddSymbol(Symbol{Name: "local_sym", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FUNC), Section: SymSectionUndefined})
	_ = globalID

	symtab, firstGlobal, _, strtab, _ := o.plan()

	// null symbol + one local => first global index is 2.
	if firstGlobal != 2 {
		t.Fatalf("firstGlobal = %d, want 2", firstGlobal)
	}
	if len(symtab) != 3 {
		t.Fatalf("len(symtab) = %d, want 3", len(symtab))
	}

	localNameIdx := symtab[1].nameIdx
	wantLocalName := "local_sym"
	if got := stringAt(strtab.data, localNameIdx); got != wantLocalName {
		t.Errorf("symtab[1] name = %q, want %q", got, wantLocalName)
	}
	_ = localID
}

func stringAt(data []byte, idx uint32) string {
	end := idx
	for end < uint32(len(data)) && data[end] != 0 {
		end++
	}
	return string(data[idx:end])
}

func TestObjectWriteToProducesValidELF64Header(t *testing.T) {
	o := NewObject(binary.LittleEndian, elf.ELFCLASS64, elf.EM_X86_64)
	secID := o.AddSection("soda", uint32(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC), 8)
	o.SetSectionData(secID, []byte{1, 2, 3, 4}, 8)

	var buf bytes.Buffer
	n, err := o.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() returned %d, but buffer has %d bytes", n, buf.Len())
	}

	f, err := elf.NewFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("produced image does not parse as ELF: %v", err)
	}
	if f.Type != elf.ET_REL {
		t.Errorf("Type = %v, want ET_REL", f.Type)
	}
	if f.Machine != elf.EM_X86_64 {
		t.Errorf("Machine = %v, want EM_X86_64", f.Machine)
	}

	sodaSec := f.Section("soda")
	if sodaSec == nil {
		t.Fatal("output is missing the \"soda\" section")
	}
	data, err := sodaSec.Data()
	if err != nil {
		t.Fatalf("reading soda section data: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3, 4}) {
		t.Errorf("soda section data = %v, want [1 2 3 4]", data)
	}
}

func TestObjectWriteToELF32(t *testing.T) {
	o := NewObject(binary.LittleEndian, elf.ELFCLASS32, elf.EM_386)
	secID := o.AddSection("soda", uint32(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC), 4)
	o.SetSectionData(secID, []byte{9, 9}, 4)

	var buf bytes.Buffer
	if _, err := o.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	f, err := elf.NewFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("produced 32-bit image does not parse as ELF: %v", err)
	}
	if f.Class != elf.ELFCLASS32 {
		t.Errorf("Class = %v, want ELFCLASS32", f.Class)
	}
}

func TestAddRelocationRejectsInvalidSection(t *testing.T) {
	o := NewObject(binary.LittleEndian, elf.ELFCLASS64, elf.EM_X86_64)

	if err := o.AddRelocation(SectionID(42), Relocation{}); err == nil {
		t.Fatal("expected error adding relocation to a nonexistent section")
	}
	if err := o.AddRelocation(SectionID(0), Relocation{}); err == nil {
		t.Fatal("expected error adding relocation to the null section")
	}
}

func TestSectionSymbolIsCachedPerSection(t *testing.T) {
	o := NewObject(binary.LittleEndian, elf.ELFCLASS64, elf.EM_X86_64)
	secID := o.AddSection("soda", uint32(elf.SHT_PROGBITS), 0, 1)

	a := o.SectionSymbol(secID)
	b := o.SectionSymbol(secID)
	if a != b {
		t.Errorf("SectionSymbol not cached: first=%v second=%v", a, b)
	}
}
