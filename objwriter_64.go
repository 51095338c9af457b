package main

import (
	"debug/elf"
	"encoding/binary"
	"io"
	"sort"
)

// objwriter_64.go - ELFCLASS64 serialization path for Object.WriteTo.
//
// Duplicated (rather than shared via generics) against objwriter_32.go
// because the wire structs and entry sizes genuinely differ at each
// field, the same way the original soda source duplicates logic across
// its own iterations (spec.md ss2's "Implementation budget" note).

type wireSection64 struct {
	fs      finalSection
	nameIdx uint32
	offset  uint64
}

func (o *Object) writeELF64(w io.Writer) (int64, error) {
	symtab, firstGlobal, shstrtab, strtab, relaSections := o.plan()

	var sections []*wireSection64
	sections = append(sections, &wireSection64{fs: finalSection{typ: uint32(elf.SHT_NULL)}})

	origFinalIdx := make([]int, len(o.sections))
	for i := 1; i < len(o.sections); i++ {
		sec := o.sections[i]
		sections = append(sections, &wireSection64{fs: finalSection{
			name: sec.name, typ: sec.typ, flags: sec.flags, align: sec.align, data: sec.data,
		}})
		origFinalIdx[i] = len(sections) - 1
	}

	strtabIdx := len(sections)
	sections = append(sections, &wireSection64{fs: finalSection{
		name: ".strtab", typ: uint32(elf.SHT_STRTAB), align: 1, data: strtab.data,
	}})

	symBuf, err := packSymbols64(o.Order, symtab)
	if err != nil {
		return 0, err
	}
	symtabIdx := len(sections)
	sections = append(sections, &wireSection64{fs: finalSection{
		name: ".symtab", typ: uint32(elf.SHT_SYMTAB), align: 8, entsize: 24,
		link: uint32(strtabIdx), info: uint32(firstGlobal), data: symBuf,
	}})

	var secIDs []int
	for id := range relaSections {
		secIDs = append(secIDs, int(id))
	}
	sort.Ints(secIDs)
	for _, id := range secIDs {
		relaBuf, err := packRelocations64(o.Order, relaSections[SectionID(id)])
		if err != nil {
			return 0, err
		}
		sections = append(sections, &wireSection64{fs: finalSection{
			name: relaSectionName(o.sections[id].name), typ: uint32(elf.SHT_RELA), align: 8, entsize: 24,
			link: uint32(symtabIdx), info: uint32(origFinalIdx[id]), data: relaBuf,
		}})
	}

	shstrtabIdx := len(sections)
	shstrtabSec := &wireSection64{fs: finalSection{
		name: ".shstrtab", typ: uint32(elf.SHT_STRTAB), align: 1,
	}}
	sections = append(sections, shstrtabSec)

	for _, s := range sections {
		s.nameIdx = shstrtab.add(s.fs.name)
	}
	shstrtabSec.fs.data = shstrtab.data

	const ehdrSize = 64
	const shdrSize = 64
	offset := uint64(ehdrSize)
	for _, s := range sections {
		if s.fs.align > 1 && offset%s.fs.align != 0 {
			offset += s.fs.align - offset%s.fs.align
		}
		s.offset = offset
		offset += uint64(len(s.fs.data))
	}
	shoff := offset

	cw := &countingWriter{w: w}

	hdr := elf.Header64{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(o.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    ehdrSize,
		Shentsize: shdrSize,
		Shnum:     uint16(len(sections)),
		Shstrndx:  uint16(shstrtabIdx),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byteOrderIdent(o.Order)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	hdr.Ident[elf.EI_OSABI] = byte(elf.ELFOSABI_NONE)

	if err := pack(cw, o.Order, &hdr); err != nil {
		return cw.written, err
	}

	for _, s := range sections {
		if pad := int64(s.offset) - cw.written; pad > 0 {
			if err := cw.WritePadding(pad); err != nil {
				return cw.written, err
			}
		}
		if _, err := cw.Write(s.fs.data); err != nil {
			return cw.written, err
		}
	}

	for _, s := range sections {
		shdr := elf.Section64{
			Name:      s.nameIdx,
			Type:      s.fs.typ,
			Flags:     s.fs.flags,
			Off:       s.offset,
			Size:      uint64(len(s.fs.data)),
			Link:      s.fs.link,
			Info:      s.fs.info,
			Addralign: s.fs.align,
			Entsize:   s.fs.entsize,
		}
		if err := pack(cw, o.Order, &shdr); err != nil {
			return cw.written, err
		}
	}

	return cw.written, nil
}

func packSymbols64(order binary.ByteOrder, symtab []layoutSymbol) ([]byte, error) {
	var buf []byte
	for _, sym := range symtab {
		raw := elf.Sym64{
			Name:  sym.nameIdx,
			Info:  sym.info,
			Other: sym.other,
			Shndx: sym.shndx,
			Value: sym.value,
			Size:  sym.size,
		}
		b, err := packBytes(order, &raw)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

func packRelocations64(order binary.ByteOrder, relocs []layoutReloc) ([]byte, error) {
	var buf []byte
	for _, r := range relocs {
		raw := elf.Rela64{
			Off:    r.offset,
			Info:   elf.R_INFO(r.symIdx, r.relType),
			Addend: r.addend,
		}
		b, err := packBytes(order, &raw)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}
