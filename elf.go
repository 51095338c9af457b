package main

import "debug/elf"

// elf.go - wires the conversion pipeline together: registers every pass
// with a PassManager, runs it against a Context, and returns the
// finished output Object ready for WriteTo.
//
// Grounded on original_source/src/elf/mod.rs (init_passes). The Rust
// original needs an ElfPassAdaptor to erase the Elf32/Elf64 generic
// parameter of each pass; Go's debug/elf.File already erases that
// distinction (Class is a runtime field, not a type parameter), so no
// adaptor layer is needed here - RegisterPass registers pass_cls.go,
// pass_symbols.go, pass_reloc.go and (conditionally) pass_initfini.go
// directly.

// Convert runs the full soda pipeline against ctx according to cfg and
// returns the resulting output Object.
func Convert(ctx *Context, cfg *Config) (*Object, error) {
	pm := NewPassManager()

	clsHandle := RegisterPass[*ClsOutput](pm, &ClsPass{OutputSectionName: cfg.OutputSectionName})
	symHandle := RegisterPass[SymbolMap](pm, &SymbolPass{ClsHandle: clsHandle})
	RegisterPass[struct{}](pm, &RelocPass{ClsHandle: clsHandle, SymHandle: symHandle})

	if cfg.EnableInitFiniArray {
		RegisterPass[struct{}](pm, &InitFiniArrayPass{ClsHandle: clsHandle, SectionType: elf.SHT_INIT_ARRAY})
		RegisterPass[struct{}](pm, &InitFiniArrayPass{ClsHandle: clsHandle, SectionType: elf.SHT_FINI_ARRAY})
	}

	if err := pm.Run(ctx); err != nil {
		return nil, err
	}

	return ctx.Output, nil
}
