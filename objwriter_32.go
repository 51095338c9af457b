package main

import (
	"debug/elf"
	"encoding/binary"
	"io"
	"sort"
)

// objwriter_32.go - ELFCLASS32 serialization path for Object.WriteTo. See
// objwriter_64.go for why this is a parallel implementation rather than a
// generic one.

type wireSection32 struct {
	fs      finalSection
	nameIdx uint32
	offset  uint32
}

func (o *Object) writeELF32(w io.Writer) (int64, error) {
	symtab, firstGlobal, shstrtab, strtab, relaSections := o.plan()

	var sections []*wireSection32
	sections = append(sections, &wireSection32{fs: finalSection{typ: uint32(elf.SHT_NULL)}})

	origFinalIdx := make([]int, len(o.sections))
	for i := 1; i < len(o.sections); i++ {
		sec := o.sections[i]
		sections = append(sections, &wireSection32{fs: finalSection{
			name: sec.name, typ: sec.typ, flags: sec.flags, align: sec.align, data: sec.data,
		}})
		origFinalIdx[i] = len(sections) - 1
	}

	strtabIdx := len(sections)
	sections = append(sections, &wireSection32{fs: finalSection{
		name: ".strtab", typ: uint32(elf.SHT_STRTAB), align: 1, data: strtab.data,
	}})

	symBuf, err := packSymbols32(o.Order, symtab)
	if err != nil {
		return 0, err
	}
	symtabIdx := len(sections)
	sections = append(sections, &wireSection32{fs: finalSection{
		name: ".symtab", typ: uint32(elf.SHT_SYMTAB), align: 4, entsize: 16,
		link: uint32(strtabIdx), info: uint32(firstGlobal), data: symBuf,
	}})

	var secIDs []int
	for id := range relaSections {
		secIDs = append(secIDs, int(id))
	}
	sort.Ints(secIDs)
	for _, id := range secIDs {
		relaBuf, err := packRelocations32(o.Order, relaSections[SectionID(id)])
		if err != nil {
			return 0, err
		}
		sections = append(sections, &wireSection32{fs: finalSection{
			name: relaSectionName(o.sections[id].name), typ: uint32(elf.SHT_RELA), align: 4, entsize: 12,
			link: uint32(symtabIdx), info: uint32(origFinalIdx[id]), data: relaBuf,
		}})
	}

	shstrtabIdx := len(sections)
	shstrtabSec := &wireSection32{fs: finalSection{
		name: ".shstrtab", typ: uint32(elf.SHT_STRTAB), align: 1,
	}}
	sections = append(sections, shstrtabSec)

	for _, s := range sections {
		s.nameIdx = shstrtab.add(s.fs.name)
	}
	shstrtabSec.fs.data = shstrtab.data

	const ehdrSize = 52
	const shdrSize = 40
	offset := uint32(ehdrSize)
	for _, s := range sections {
		if s.fs.align > 1 && uint64(offset)%s.fs.align != 0 {
			offset += uint32(s.fs.align - uint64(offset)%s.fs.align)
		}
		s.offset = offset
		offset += uint32(len(s.fs.data))
	}
	shoff := offset

	cw := &countingWriter{w: w}

	hdr := elf.Header32{
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
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
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
		shdr := elf.Section32{
			Name:      s.nameIdx,
			Type:      s.fs.typ,
			Flags:     uint32(s.fs.flags),
			Off:       s.offset,
			Size:      uint32(len(s.fs.data)),
			Link:      s.fs.link,
			Info:      s.fs.info,
			Addralign: uint32(s.fs.align),
			Entsize:   uint32(s.fs.entsize),
		}
		if err := pack(cw, o.Order, &shdr); err != nil {
			return cw.written, err
		}
	}

	return cw.written, nil
}

func packSymbols32(order binary.ByteOrder, symtab []layoutSymbol) ([]byte, error) {
	var buf []byte
	for _, sym := range symtab {
		raw := elf.Sym32{
			Name:  sym.nameIdx,
			Value: uint32(sym.value),
			Size:  uint32(sym.size),
			Info:  sym.info,
			Other: sym.other,
			Shndx: sym.shndx,
		}
		b, err := packBytes(order, &raw)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

func packRelocations32(order binary.ByteOrder, relocs []layoutReloc) ([]byte, error) {
	var buf []byte
	for _, r := range relocs {
		raw := elf.Rela32{
			Off:    uint32(r.offset),
			Info:   elf.R_INFO32(r.symIdx, r.relType),
			Addend: int32(r.addend),
		}
		b, err := packBytes(order, &raw)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}
