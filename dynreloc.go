package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/struc"
)

// dynreloc.go - manual decoding of dynamic (SHT_RELA/SHT_REL) relocation
// sections. The standard library's debug/elf has no public "dynamic
// relocations" iterator comparable to object::read::elf::ElfFile's
// dynamic_relocations(); it only exposes Rel32/Rel64/Rela32/Rela64 as wire
// structs for decoder authors. Decoding them here follows
// davejbax/pixie's internal/grub/reloc.go readRelaEntry/readRelEntry,
// which unpacks those same structs with struc.UnpackWithOptions.

// DynRelocation is one decoded dynamic relocation entry, independent of
// class (32/64-bit) and of whether it came from a Rel or Rela section.
type DynRelocation struct {
	Offset    uint64
	Symbol    uint32
	Type      uint32
	Addend    int64
	HasAddend bool
}

// Size reports the relocation's bit width, mirroring object::Relocation's
// derivation of size from kind: the handful of x86-64 kinds this module
// deals with are all 64-bit; anything else reports 0 (unknown).
func (r DynRelocation) Size() int {
	switch elf.R_X86_64(r.Type) {
	case elf.R_X86_64_64, elf.R_X86_64_RELATIVE, elf.R_X86_64_GLOB_DAT,
		elf.R_X86_64_JMP_SLOT, elf.R_X86_64_DTPMOD64:
		return 64
	default:
		return 0
	}
}

// readDynamicRelocations scans every SHT_REL/SHT_RELA section in f and
// returns their entries in file order. Sections are not filtered by
// sh_link; only those with a zero sh_entsize are skipped.
func readDynamicRelocations(f *elf.File) ([]DynRelocation, error) {
	order := byteOrderOf(f)

	var out []DynRelocation
	for _, sec := range f.Sections {
		if sec.Type != elf.SHT_REL && sec.Type != elf.SHT_RELA {
			continue
		}

		data, err := sec.Data()
		if err != nil {
			return nil, fmt.Errorf("reading relocation section %q: %w", sec.Name, err)
		}

		hasAddend := sec.Type == elf.SHT_RELA
		entsize := int(sec.Entsize)
		if entsize == 0 {
			continue
		}

		for off := 0; off+entsize <= len(data); off += entsize {
			r := bytes.NewReader(data[off : off+entsize])
			var entry DynRelocation
			entry.HasAddend = hasAddend

			if f.Class == elf.ELFCLASS64 {
				if hasAddend {
					var raw elf.Rela64
					if err := struc.UnpackWithOptions(r, &raw, &struc.Options{Order: order}); err != nil {
						return nil, fmt.Errorf("unpacking Rela64 in %q: %w", sec.Name, err)
					}
					entry.Offset = raw.Off
					entry.Symbol = uint32(elf.R_SYM64(raw.Info))
					entry.Type = uint32(elf.R_TYPE64(raw.Info))
					entry.Addend = raw.Addend
				} else {
					var raw elf.Rel64
					if err := struc.UnpackWithOptions(r, &raw, &struc.Options{Order: order}); err != nil {
						return nil, fmt.Errorf("unpacking Rel64 in %q: %w", sec.Name, err)
					}
					entry.Offset = raw.Off
					entry.Symbol = uint32(elf.R_SYM64(raw.Info))
					entry.Type = uint32(elf.R_TYPE64(raw.Info))
				}
			} else {
				if hasAddend {
					var raw elf.Rela32
					if err := struc.UnpackWithOptions(r, &raw, &struc.Options{Order: order}); err != nil {
						return nil, fmt.Errorf("unpacking Rela32 in %q: %w", sec.Name, err)
					}
					entry.Offset = uint64(raw.Off)
					entry.Symbol = elf.R_SYM32(raw.Info)
					entry.Type = elf.R_TYPE32(raw.Info)
					entry.Addend = int64(raw.Addend)
				} else {
					var raw elf.Rel32
					if err := struc.UnpackWithOptions(r, &raw, &struc.Options{Order: order}); err != nil {
						return nil, fmt.Errorf("unpacking Rel32 in %q: %w", sec.Name, err)
					}
					entry.Offset = uint64(raw.Off)
					entry.Symbol = elf.R_SYM32(raw.Info)
					entry.Type = elf.R_TYPE32(raw.Info)
				}
			}

			out = append(out, entry)
		}
	}

	return out, nil
}

func byteOrderOf(f *elf.File) binary.ByteOrder {
	if f.Data == elf.ELFDATA2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
