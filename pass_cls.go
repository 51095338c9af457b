package main

import (
	"debug/elf"
	"fmt"
	"log/slog"
	"sort"
)

// pass_cls.go - the "copy loadable sections" (CLS) pass: coalesces every
// input section that lives inside a PT_LOAD segment into one output
// PROGBITS section, preserving each input section's address as its offset
// within the coalesced blob.
//
// Grounded on original_source/src/elf/pass/section.rs
// (CopyLodableSectionsPass / CopyLodableSectionsOutput / SectionMap).

// ClsSectionMap records where one input section landed inside the
// coalesced output section.
type ClsSectionMap struct {
	Index       int
	InputStart  uint64
	InputEnd    uint64
	OutputStart uint64
	OutputEnd   uint64
}

// ClsOutput is the published result of ClsPass.
type ClsOutput struct {
	OutputSection SectionID
	OutputSymbol  SymbolID
	Ranges        []ClsSectionMap
}

// IsSectionCopied reports whether the input section at idx was coalesced.
func (o *ClsOutput) IsSectionCopied(idx int) bool {
	_, ok := o.find(idx)
	return ok
}

// MapInputAddr translates an input virtual address to its offset within
// the coalesced output section, if the address falls within a copied
// input section's range.
func (o *ClsOutput) MapInputAddr(addr uint64) (uint64, bool) {
	for _, m := range o.Ranges {
		if addr >= m.InputStart && addr < m.InputEnd {
			return m.OutputStart + (addr - m.InputStart), true
		}
	}
	return 0, false
}

func (o *ClsOutput) find(idx int) (ClsSectionMap, bool) {
	for _, m := range o.Ranges {
		if m.Index == idx {
			return m, true
		}
	}
	return ClsSectionMap{}, false
}

// ClsPass is the pass implementation; OutputSectionName lets the CLI
// override the produced section's name (spec.md ss4.3/SPEC_FULL.md ss4.9).
type ClsPass struct {
	OutputSectionName string
}

func (p *ClsPass) Name() string { return "copy sections" }

func (p *ClsPass) Run(pc *PassContext) (*ClsOutput, error) {
	name := p.OutputSectionName
	if name == "" {
		name = "soda"
	}

	secID := pc.Ctx.Output.AddSection(name, uint32(elf.SHT_PROGBITS), 0, 0)
	symID := pc.Ctx.Output.SectionSymbol(secID)

	out := &ClsOutput{OutputSection: secID, OutputSymbol: symID}

	input := collectLoadableSections(pc.Ctx.Input)
	if len(input) == 0 {
		return out, nil
	}

	var writable, executable bool
	for _, sec := range input {
		writable = writable || sec.Flags&elf.SHF_WRITE != 0
		executable = executable || sec.Flags&elf.SHF_EXECINSTR != 0
	}
	flags := uint64(elf.SHF_ALLOC)
	if writable {
		flags |= uint64(elf.SHF_WRITE)
	}
	if executable {
		flags |= uint64(elf.SHF_EXECINSTR)
	}

	var outSize uint64
	var outAlign uint64 = 1
	for _, sec := range input {
		if sec.Addr < outSize {
			slog.Warn("overlapping input section", "section", sec.Name)
		}
		if sec.Addralign != 0 && sec.Addr%sec.Addralign != 0 {
			slog.Warn("unaligned input section", "section", sec.Name)
		}

		end := sec.Addr + sec.Size
		if end > outSize {
			outSize = end
		}
		if sec.Addralign > outAlign {
			outAlign = sec.Addralign
		}
		out.Ranges = append(out.Ranges, ClsSectionMap{
			Index:       sec.idx,
			InputStart:  sec.Addr,
			InputEnd:    end,
			OutputStart: sec.Addr,
			OutputEnd:   end,
		})
	}

	buf := make([]byte, outSize)
	for _, sec := range input {
		if sec.Type == elf.SHT_NOBITS {
			// No file bytes; its range stays zero-filled.
			continue
		}
		data, err := sec.Data()
		if err != nil {
			return nil, &ReadError{Detail: fmt.Sprintf("reading section %q", sec.Name), Err: err}
		}
		copy(buf[sec.Addr:sec.Addr+sec.Size], data)
	}

	pc.Ctx.Output.SetSectionData(secID, buf, outAlign)
	pc.Ctx.Output.SetSectionFlags(secID, flags)

	return out, nil
}

type loadableSection struct {
	*elf.Section
	idx int
}

// collectLoadableSections returns, in address order, every section that
// lies entirely within some PT_LOAD segment.
func collectLoadableSections(f *elf.File) []loadableSection {
	var loads []*elf.Prog
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD {
			loads = append(loads, prog)
		}
	}

	var result []loadableSection
	for i, sec := range f.Sections {
		if i == 0 || sec.Addr == 0 {
			continue
		}
		for _, seg := range loads {
			if sectionInSegment(sec, seg) {
				result = append(result, loadableSection{Section: sec, idx: i})
				break
			}
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Addr < result[j].Addr })
	return result
}

func sectionInSegment(sec *elf.Section, seg *elf.Prog) bool {
	secEnd := sec.Addr + sec.Size
	segEnd := seg.Vaddr + seg.Memsz
	return sec.Addr >= seg.Vaddr && secEnd <= segEnd
}
