package report

import (
	"debug/elf"
	"errors"
	"io"
	"slices"
)

// Symbolizer maps code addresses to function names using the symbol table of
// the firmware's ELF file.
type Symbolizer struct {
	funcs []elf.Symbol // sorted by Value
}

// NewSymbolizer reads the function symbols from the ELF file in r.
func NewSymbolizer(r io.ReaderAt) (*Symbolizer, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if f.Machine != elf.EM_ARM {
		return nil, errors.New("report: not an ARM executable")
	}
	syms, err := f.Symbols()
	if err != nil {
		return nil, err
	}
	return newSymbolizer(syms), nil
}

func newSymbolizer(syms []elf.Symbol) *Symbolizer {
	funcs := slices.DeleteFunc(slices.Clone(syms), func(s elf.Symbol) bool {
		return elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Value == 0
	})
	for i := range funcs {
		funcs[i].Value &^= 1 // thumb bit
	}
	slices.SortFunc(funcs, func(a, b elf.Symbol) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return 0
	})
	return &Symbolizer{funcs: funcs}
}

// Lookup returns the function containing addr and the offset of addr into it.
func (s *Symbolizer) Lookup(addr uint32) (name string, offset uint32, ok bool) {
	a := uint64(addr &^ 1)
	i, found := slices.BinarySearchFunc(s.funcs, a, func(sym elf.Symbol, a uint64) int {
		switch {
		case sym.Value < a:
			return -1
		case sym.Value > a:
			return 1
		}
		return 0
	})
	if !found {
		i-- // last function starting before addr
	}
	if i < 0 {
		return "", 0, false
	}
	fn := s.funcs[i]
	if fn.Size != 0 && a >= fn.Value+fn.Size {
		return "", 0, false
	}
	return fn.Name, uint32(a - fn.Value), true
}
