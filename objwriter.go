package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lunixbochs/struc"
)

// objwriter.go - a from-scratch ELF ET_REL object builder and writer.
//
// No third-party ELF *writer* exists anywhere in the example corpus (the
// read side is covered by the standard library's debug/elf, used
// throughout davejbax/pixie's internal/grub package). This is therefore
// hand-rolled, grounded on two corpus sources:
//
//   - the section/symbol/string-table bookkeeping and two-pass layout
//     follow arc-language-core's codegen/format ELF writer (File, Section,
//     Symbol, StringTable, WriteTo);
//   - the actual header (de)serialization uses github.com/lunixbochs/struc
//     with struc.Options{Order: ...}, exactly as davejbax/pixie's
//     internal/efipe package packs its own from-scratch PE/DOS headers,
//     and as its internal/grub/reloc.go unpacks elf.Rel64/elf.Rela64.
//
// Rather than invent parallel wire-format structs, the writer packs the
// standard library's own elf.Header32/64, elf.Section32/64, elf.Sym32/64
// and elf.Rela32/elf.Rela64 types - the same layouts debug/elf uses
// to parse them, so the round trip is exact by construction.

// SectionID identifies a section within an Object under construction.
// Index 0 is reserved for the implicit SHT_NULL section.
type SectionID int

// SymbolID identifies a symbol within an Object under construction.
type SymbolID int

// SymSectionKind classifies which of the ELF "special section index"
// cases a symbol falls into, mirroring object::write::SymbolSection.
type SymSectionKind int

const (
	SymSectionNone SymSectionKind = iota
	SymSectionUndefined
	SymSectionAbsolute
	SymSectionCommon
	SymSectionDefined
)

// Symbol is a symbol-table entry awaiting serialization. Info and Other
// are the raw st_info/st_other bytes; callers are responsible for any
// normalization (e.g. the GNU-unique-to-global downgrade in spec.md
// ss4.3) before calling AddSymbol.
type Symbol struct {
	Name    string
	Info    byte
	Other   byte
	Section SymSectionKind
	Sec     SectionID // valid iff Section == SymSectionDefined
	Value   uint64
	Size    uint64
}

func (s *Symbol) binding() elf.SymBind { return elf.ST_BIND(s.Info) }

// Relocation is a single static relocation awaiting serialization into a
// .rela-style section attached to some SectionID.
type Relocation struct {
	Offset uint64
	Symbol SymbolID
	Type   uint32
	Addend int64
}

type objSection struct {
	name    string
	typ     uint32
	flags   uint64
	align   uint64
	data    []byte
	link    uint32
	info    uint32
	entsize uint64
}

// Object accumulates sections, symbols and relocations produced by the
// conversion passes and serializes them into a single ET_REL image
// matching the input's class (32/64-bit) and byte order.
type Object struct {
	Order   binary.ByteOrder
	Class   elf.Class
	Machine elf.Machine

	sections []*objSection // index 0 is the implicit null section
	symbols  []*Symbol
	relocs   map[SectionID][]Relocation

	sectionSymCache map[SectionID]SymbolID
}

// NewObject creates an empty output object matching the given class, byte
// order and machine.
func NewObject(order binary.ByteOrder, class elf.Class, machine elf.Machine) *Object {
	o := &Object{
		Order:           order,
		Class:           class,
		Machine:         machine,
		relocs:          make(map[SectionID][]Relocation),
		sectionSymCache: make(map[SectionID]SymbolID),
	}
	o.sections = append(o.sections, &objSection{typ: uint32(elf.SHT_NULL)})
	return o
}

// AddSection creates a new output section and returns its id.
func (o *Object) AddSection(name string, typ uint32, flags uint64, align uint64) SectionID {
	id := SectionID(len(o.sections))
	o.sections = append(o.sections, &objSection{
		name:  name,
		typ:   typ,
		flags: flags,
		align: align,
	})
	return id
}

// SetSectionData replaces a section's contents and alignment.
func (o *Object) SetSectionData(id SectionID, data []byte, align uint64) {
	o.sections[id].data = data
	o.sections[id].align = align
}

// SetSectionFlags overwrites a section's sh_flags.
func (o *Object) SetSectionFlags(id SectionID, flags uint64) {
	o.sections[id].flags = flags
}

// SectionSize returns the current size of a section's data.
func (o *Object) SectionSize(id SectionID) int {
	return len(o.sections[id].data)
}

// SectionSymbol returns the (lazily created) local STT_SECTION symbol
// that defines the given section, creating it on first use.
func (o *Object) SectionSymbol(id SectionID) SymbolID {
	if sym, ok := o.sectionSymCache[id]; ok {
		return sym
	}
	symID := o.AddSymbol(Symbol{
		Info:    elf.ST_INFO(elf.STB_LOCAL, elf.STT_SECTION),
		Section: SymSectionDefined,
		Sec:     id,
	})
	o.sectionSymCache[id] = symID
	return symID
}

// AddSymbol appends a symbol and returns its id.
func (o *Object) AddSymbol(sym Symbol) SymbolID {
	id := SymbolID(len(o.symbols))
	s := sym
	o.symbols = append(o.symbols, &s)
	return id
}

// AddRelocation attaches a static relocation to the given section.
func (o *Object) AddRelocation(sectionID SectionID, r Relocation) error {
	if int(sectionID) <= 0 || int(sectionID) >= len(o.sections) {
		return fmt.Errorf("add relocation: invalid section id %d", sectionID)
	}
	o.relocs[sectionID] = append(o.relocs[sectionID], r)
	return nil
}

// stringTable is a deduplicating ELF string table builder: index 0 always
// holds the empty string, matching SHN_UNDEF-style "no name" symbols.
type stringTable struct {
	data []byte
	seen map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{data: []byte{0}, seen: make(map[string]uint32)}
}

func (st *stringTable) add(s string) uint32 {
	if s == "" {
		return 0
	}
	if idx, ok := st.seen[s]; ok {
		return idx
	}
	idx := uint32(len(st.data))
	st.data = append(st.data, []byte(s)...)
	st.data = append(st.data, 0)
	st.seen[s] = idx
	return idx
}

// layoutSymbol is the final, class-independent shape of one symtab entry
// after local/global reordering.
type layoutSymbol struct {
	nameIdx uint32
	info    byte
	other   byte
	shndx   uint16
	value   uint64
	size    uint64
}

// layoutReloc is the final, class-independent shape of one relocation
// entry, with its symbol already translated to its final symtab index.
type layoutReloc struct {
	offset    uint64
	symIdx    uint32
	relType   uint32
	addend    int64
}

// plan computes the symbol-table reordering (locals before globals),
// builds the string tables, and materializes the .rela sections, all in a
// class-independent form that writeELF32/writeELF64 then pack.
func (o *Object) plan() (symtab []layoutSymbol, firstGlobal int, shstrtab, strtab *stringTable, relaSections map[SectionID][]layoutReloc) {
	strtab = newStringTable()
	shstrtab = newStringTable()

	// Map from original symbol index to its final symtab index (1 +
	// position, since index 0 is the null symbol).
	finalIdx := make([]int, len(o.symbols))

	symtab = append(symtab, layoutSymbol{}) // null symbol

	appendSym := func(origIdx int) {
		sym := o.symbols[origIdx]
		shndx := uint16(elf.SHN_UNDEF)
		switch sym.Section {
		case SymSectionUndefined, SymSectionNone:
			shndx = uint16(elf.SHN_UNDEF)
		case SymSectionAbsolute:
			shndx = uint16(elf.SHN_ABS)
		case SymSectionCommon:
			shndx = uint16(elf.SHN_COMMON)
		case SymSectionDefined:
			shndx = uint16(sym.Sec)
		}
		finalIdx[origIdx] = len(symtab)
		symtab = append(symtab, layoutSymbol{
			nameIdx: strtab.add(sym.Name),
			info:    sym.Info,
			other:   sym.Other,
			shndx:   shndx,
			value:   sym.Value,
			size:    sym.Size,
		})
	}

	for i, sym := range o.symbols {
		if sym.binding() == elf.STB_LOCAL {
			appendSym(i)
		}
	}
	firstGlobal = len(symtab)
	for i, sym := range o.symbols {
		if sym.binding() != elf.STB_LOCAL {
			appendSym(i)
		}
	}

	for _, sec := range o.sections {
		shstrtab.add(sec.name)
	}

	relaSections = make(map[SectionID][]layoutReloc)
	for secID, relocs := range o.relocs {
		out := make([]layoutReloc, 0, len(relocs))
		for _, r := range relocs {
			out = append(out, layoutReloc{
				offset:  r.Offset,
				symIdx:  uint32(finalIdx[int(r.Symbol)]),
				relType: r.Type,
				addend:  r.Addend,
			})
		}
		relaSections[secID] = out
	}

	return symtab, firstGlobal, shstrtab, strtab, relaSections
}

func pack(w io.Writer, order binary.ByteOrder, v any) error {
	return struc.PackWithOptions(w, v, &struc.Options{Order: order})
}

// packBytes packs v (a fixed-size ELF wire struct) into a standalone byte
// slice using the given byte order.
func packBytes(order binary.ByteOrder, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pack(&buf, order, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// byteOrderIdent returns the ELF e_ident[EI_DATA] value matching order.
func byteOrderIdent(order binary.ByteOrder) byte {
	if order == binary.BigEndian {
		return byte(elf.ELFDATA2MSB)
	}
	return byte(elf.ELFDATA2LSB)
}

// WriteTo serializes the accumulated object as an ET_REL ELF image.
func (o *Object) WriteTo(w io.Writer) (int64, error) {
	switch o.Class {
	case elf.ELFCLASS64:
		return o.writeELF64(w)
	case elf.ELFCLASS32:
		return o.writeELF32(w)
	default:
		return 0, fmt.Errorf("object writer: unsupported ELF class %v", o.Class)
	}
}

func relaSectionName(base string) string {
	return ".rela" + base
}

// finalSection is the class-independent shape of an output section once
// layout has been decided: name/type/flags/link/info/align/entsize plus
// its raw bytes. writeELF32/writeELF64 pack these into the appropriately
// sized wire header.
type finalSection struct {
	name    string
	typ     uint32
	flags   uint64
	link    uint32
	info    uint32
	align   uint64
	entsize uint64
	data    []byte
}
