package main

import (
	"debug/elf"
	"log/slog"
)

// pass_reloc.go - the relocation conversion pass: turns the input DSO's
// dynamic relocations into static relocations against the coalesced
// output section and its synthesized symbols.
//
// Grounded on original_source/src/elf/pass/reloc.rs
// (ConvertRelocationPass::convert_x86_64_relocations). Per spec.md
// ss4.4's architecture gate, only EM_X86_64 is supported here; i386 is
// recognized by ctx.go at parse time but rejected by this pass.

// RelocPass converts dynamic relocations to static ones. ClsHandle and
// SymHandle must reference the ClsPass and SymbolPass already registered
// in the same PassManager.
type RelocPass struct {
	ClsHandle PassHandle[*ClsOutput]
	SymHandle PassHandle[SymbolMap]
}

func (p *RelocPass) Name() string { return "convert relocations" }

func (p *RelocPass) Run(pc *PassContext) (struct{}, error) {
	if pc.Ctx.Input.Machine != elf.EM_X86_64 {
		return struct{}{}, &UnsupportedArchError{Machine: pc.Ctx.Input.Machine.String()}
	}

	cls := GetPassOutput(pc, p.ClsHandle)
	symMap := GetPassOutput(pc, p.SymHandle)

	relocs, err := readDynamicRelocations(pc.Ctx.Input)
	if err != nil {
		return struct{}{}, &ReadError{Detail: "reading dynamic relocations", Err: err}
	}

	for _, r := range relocs {
		if err := convertOneReloc(pc, cls, symMap, r); err != nil {
			return struct{}{}, err
		}
	}

	return struct{}{}, nil
}

func convertOneReloc(pc *PassContext, cls *ClsOutput, symMap SymbolMap, r DynRelocation) error {
	outOffset, ok := cls.MapInputAddr(r.Offset)
	if !ok {
		slog.Warn("dynamic relocation falls outside retained ranges", "offset", r.Offset)
		return nil
	}

	if r.Size() != 0 && r.Size() != 64 {
		slog.Warn("unexpected dynamic relocation size, proceeding with 64", "size", r.Size())
	}

	var outSym SymbolID
	var outAddend int64
	var outType uint32 = uint32(elf.R_X86_64_64)

	switch elf.R_X86_64(r.Type) {
	case elf.R_X86_64_RELATIVE:
		mapped, ok := cls.MapInputAddr(uint64(r.Addend))
		if !ok {
			slog.Warn("relocation target is out of loadable input sections")
			return nil
		}
		outSym = cls.OutputSymbol
		outAddend = int64(mapped)

	case elf.R_X86_64_64, elf.R_X86_64_GLOB_DAT, elf.R_X86_64_JMP_SLOT:
		sym, ok := symMap.GetOutputSymbol(int(r.Symbol))
		if !ok {
			slog.Warn("dynamic relocation references a symbol that was not emitted", "symbol", r.Symbol)
			return nil
		}
		outSym = sym
		outAddend = r.Addend

	case elf.R_X86_64_DTPMOD64:
		// Open question (spec.md ss9): the original source associates
		// the CLS section symbol with this reloc despite a comment
		// saying no symbol should be associated with it. Retained
		// verbatim here, kind and addend preserved, pending a settled
		// TLS story.
		outSym = cls.OutputSymbol
		outAddend = r.Addend
		outType = uint32(elf.R_X86_64_DTPMOD64)

	default:
		return &UnsupportedRelocError{Kind: r.Type}
	}

	return pc.Ctx.Output.AddRelocation(cls.OutputSection, Relocation{
		Offset: outOffset,
		Symbol: outSym,
		Type:   outType,
		Addend: outAddend,
	})
}
