package navigator

import (
	"debug/elf"
	"fmt"
	"slices"
	"sort"
)

// StaticCode is an in-memory CodeSource.
type StaticCode struct {
	funcs []Function
}

// NewStaticCode returns a CodeSource over funcs.
func NewStaticCode(funcs ...Function) *StaticCode {
	sc := &StaticCode{funcs: slices.Clone(funcs)}
	slices.SortFunc(sc.funcs, func(a, b Function) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
	return sc
}

// FunctionAt implements CodeSource.
func (s *StaticCode) FunctionAt(addr uint64) (Function, error) {
	i := sort.Search(len(s.funcs), func(i int) bool { return s.funcs[i].Start > addr }) - 1
	if i < 0 {
		return Function{}, ErrNoFunction
	}
	f := s.funcs[i]
	if addr >= f.Start+uint64(len(f.Code)) {
		return Function{}, ErrNoFunction
	}
	return f, nil
}

// SymbolAt implements CodeSource.
func (s *StaticCode) SymbolAt(addr uint64) (string, bool) {
	i := sort.Search(len(s.funcs), func(i int) bool { return s.funcs[i].Start >= addr })
	if i < len(s.funcs) && s.funcs[i].Start == addr {
		return s.funcs[i].Name, true
	}
	return "", false
}

// OpenELF loads the function symbols and executable sections of an ELF
// binary into a StaticCode.
func OpenELF(path string) (*StaticCode, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mode := 64
	if f.Class == elf.ELFCLASS32 {
		mode = 32
	}
	switch f.Machine {
	case elf.EM_X86_64, elf.EM_386:
	default:
		return nil, fmt.Errorf("unsupported machine %v", f.Machine)
	}

	syms, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("read symbols: %w", err)
	}

	// Functions slice into one buffer per section.
	sections := make(map[elf.SectionIndex][]byte)
	var funcs []Function
	for _, sym := range syms {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC || sym.Size == 0 || int(sym.Section) >= len(f.Sections) {
			continue
		}
		sec := f.Sections[sym.Section]
		if sec.Flags&elf.SHF_EXECINSTR == 0 || sym.Value < sec.Addr {
			continue
		}
		data, ok := sections[sym.Section]
		if !ok {
			if data, err = sec.Data(); err != nil {
				return nil, fmt.Errorf("read %s: %w", sec.Name, err)
			}
			sections[sym.Section] = data
		}
		lo := sym.Value - sec.Addr
		hi := lo + sym.Size
		if hi > uint64(len(data)) {
			continue
		}
		funcs = append(funcs, Function{
			Name:  sym.Name,
			Start: sym.Value,
			Code:  data[lo:hi:hi],
			Mode:  mode,
		})
	}
	return NewStaticCode(funcs...), nil
}
