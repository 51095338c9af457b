package main

import (
	"debug/elf"
	"errors"
	"log/slog"
)

// pass_symbols.go - the symbol synthesis pass: translates the input's
// dynamic symbol table into the output object's static symbol table.
//
// Grounded on original_source/src/elf/pass/symbol.rs
// (GenerateSymbolPass / SymbolMap / create_output_symbol), with the
// filtering rule spelled out in spec.md ss4.3: undefined symbols are
// always emitted; defined symbols are emitted only if global-bound, of
// default/protected visibility, and defined in a section CLS retained.

// gnuUniqueBind is STB_GNU_UNIQUE, the GNU extension binding value;
// debug/elf does not name it (it falls in the OS-reserved
// STB_LOOS..STB_HIOS range), so it is spelled out here for the downgrade
// spec.md ss4.3/(I7) requires.
const gnuUniqueBind = 10

// SymbolMap maps an input dynamic symbol table index to the SymbolID it
// produced in the output object, for symbols that were emitted.
type SymbolMap map[int]SymbolID

// GetOutputSymbol looks up the output symbol corresponding to an input
// dynamic symbol index.
func (m SymbolMap) GetOutputSymbol(inputIdx int) (SymbolID, bool) {
	id, ok := m[inputIdx]
	return id, ok
}

// SymbolPass is the pass implementation. ClsHandle must reference a
// previously registered ClsPass in the same PassManager.
type SymbolPass struct {
	ClsHandle PassHandle[*ClsOutput]
}

func (p *SymbolPass) Name() string { return "generate symbols" }

func (p *SymbolPass) Run(pc *PassContext) (SymbolMap, error) {
	cls := GetPassOutput(pc, p.ClsHandle)

	dynSyms, err := pc.Ctx.Input.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, &ReadError{Detail: "reading dynamic symbols", Err: err}
	}

	out := make(SymbolMap)
	for i, sym := range dynSyms {
		outSym, ok := buildOutputSymbol(sym, cls)
		if !ok {
			continue
		}

		id := pc.Ctx.Output.AddSymbol(outSym)
		// debug/elf's DynamicSymbols skips the reserved null entry at
		// index 0, so i is 0-based into the remaining entries; +1
		// restores the input's own 1-based dynsym index space for
		// relocation-pass lookups.
		out[i+1] = id
	}

	return out, nil
}

func buildOutputSymbol(sym elf.Symbol, cls *ClsOutput) (Symbol, bool) {
	if sym.Section == elf.SHN_UNDEF {
		return Symbol{
			Name:    sym.Name,
			Info:    normalizeBinding(sym.Info),
			Other:   sym.Other,
			Section: SymSectionUndefined,
			Value:   sym.Value,
			Size:    sym.Size,
		}, true
	}

	if elf.ST_BIND(sym.Info) == elf.STB_LOCAL {
		return Symbol{}, false
	}

	switch elf.ST_VISIBILITY(sym.Other) {
	case elf.STV_DEFAULT, elf.STV_PROTECTED:
	default:
		return Symbol{}, false
	}

	var section SymSectionKind
	var secID SectionID

	switch {
	case sym.Section == elf.SHN_ABS:
		section = SymSectionAbsolute
	case sym.Section == elf.SHN_COMMON:
		section = SymSectionCommon
	default:
		if !cls.IsSectionCopied(int(sym.Section)) {
			slog.Warn("defined dynamic symbol refers to a section not retained by CLS", "symbol", sym.Name)
			return Symbol{}, false
		}
		section = SymSectionDefined
		secID = cls.OutputSection
	}

	return Symbol{
		Name:    sym.Name,
		Info:    normalizeBinding(sym.Info),
		Other:   sym.Other,
		Section: section,
		Sec:     secID,
		Value:   sym.Value,
		Size:    sym.Size,
	}, true
}

// normalizeBinding applies (I7): GNU-unique binding is downgraded to
// global, every other binding is preserved verbatim.
func normalizeBinding(info byte) byte {
	if elf.ST_BIND(info) == gnuUniqueBind {
		return elf.ST_INFO(elf.STB_GLOBAL, elf.ST_TYPE(info))
	}
	return info
}
