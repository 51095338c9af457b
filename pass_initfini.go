package main

import (
	"debug/elf"
)

// pass_initfini.go - the optional init/fini-array pass: re-emits
// .init_array/.fini_array sections that CLS already coalesced as their
// own standalone output sections, with RELATIVE relocations pointing back
// into the main coalesced section.
//
// Grounded on original_source/src/elf/pass/init_array.rs
// (GenerateInitArrayPass / GenerateFiniArrayPass / GenerateFuncPtrArray).
// Enabled via SPEC_FULL.md ss4.9's Config.EnableInitFiniArray, resolving
// the source's own "coalesce then recreate" vs. "coalesce only" split
// (spec.md ss9) in favor of making it a caller choice.

const initFiniArrayAlign = 8

// InitFiniArrayPass regenerates a single SHT_INIT_ARRAY or SHT_FINI_ARRAY
// output section from the input sections of the same kind that CLS
// retained.
type InitFiniArrayPass struct {
	ClsHandle   PassHandle[*ClsOutput]
	SectionType elf.SectionType // elf.SHT_INIT_ARRAY or elf.SHT_FINI_ARRAY
}

func (p *InitFiniArrayPass) Name() string {
	if p.SectionType == elf.SHT_INIT_ARRAY {
		return "generate init array"
	}
	return "generate fini array"
}

func (p *InitFiniArrayPass) Run(pc *PassContext) (struct{}, error) {
	outName := ".fini_array"
	if p.SectionType == elf.SHT_INIT_ARRAY {
		outName = ".init_array"
	}

	if pc.Ctx.Input.Machine != elf.EM_X86_64 {
		return struct{}{}, &UnsupportedArchError{Machine: pc.Ctx.Input.Machine.String()}
	}

	cls := GetPassOutput(pc, p.ClsHandle)

	var totalSize uint64
	type contributingRange struct {
		start, end, outBase uint64
	}
	var ranges []contributingRange

	for _, sec := range pc.Ctx.Input.Sections {
		if sec.Type != p.SectionType || sec.Size == 0 {
			continue
		}
		if !cls.IsSectionCopied(indexOf(pc.Ctx.Input, sec)) {
			continue
		}
		ranges = append(ranges, contributingRange{
			start:   sec.Addr,
			end:     sec.Addr + sec.Size,
			outBase: totalSize,
		})
		totalSize += sec.Size
	}

	if totalSize == 0 {
		return struct{}{}, nil
	}

	relocs, err := readDynamicRelocations(pc.Ctx.Input)
	if err != nil {
		return struct{}{}, &ReadError{Detail: "reading dynamic relocations", Err: err}
	}

	const relativeType = uint32(elf.R_X86_64_RELATIVE)

	var outRelocs []Relocation
	for _, r := range relocs {
		for _, rng := range ranges {
			if r.Offset < rng.start || r.Offset >= rng.end {
				continue
			}
			if r.Type != relativeType {
				return struct{}{}, &UnsupportedRelocError{Kind: r.Type}
			}
			outRelocs = append(outRelocs, Relocation{
				Offset: rng.outBase + (r.Offset - rng.start),
				Symbol: cls.OutputSymbol,
				Type:   r.Type,
				Addend: r.Addend,
			})
			break
		}
	}

	secID := pc.Ctx.Output.AddSection(outName, uint32(p.SectionType), uint64(elf.SHF_ALLOC|elf.SHF_WRITE), initFiniArrayAlign)
	pc.Ctx.Output.SetSectionData(secID, make([]byte, totalSize), initFiniArrayAlign)

	for _, r := range outRelocs {
		if err := pc.Ctx.Output.AddRelocation(secID, r); err != nil {
			return struct{}{}, err
		}
	}

	return struct{}{}, nil
}

func indexOf(f *elf.File, sec *elf.Section) int {
	for i, s := range f.Sections {
		if s == sec {
			return i
		}
	}
	return -1
}
