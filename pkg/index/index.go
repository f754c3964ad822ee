// Package index maps trace positions to code addresses.
//
// The tracer writes a second, line-oriented feed next to the taint trace.
// Lines starting with "E" record where an instruction executed:
//
//	E <address> <f2> <f3> <f4> <position> ...
//
// and lines starting with "L" record loaded libraries:
//
//	L <id> <base> <name>
//
// Fields are whitespace separated and the address is hexadecimal with an
// optional 0x prefix. Other lines are ignored.
package index

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/trace"
)

// Column positions within E and L lines.
const (
	execAddressField  = 1
	execPositionField = 5
	libIDField        = 1
	libBaseField      = 2
	libNameField      = 3
)

// ErrShortLine is reported for E or L lines with too few fields.
var ErrShortLine = errors.New("index line has too few fields")

// Library is one loaded module.
type Library struct {
	ID   string `json:"id"`
	Base string `json:"base"`
	Name string `json:"name"`
}

// String returns "base name".
func (l Library) String() string { return l.Base + " " + l.Name }

// Stats counts what a parse consumed.
type Stats struct {
	Lines     int `json:"lines"`
	Positions int `json:"positions"`
	Libraries int `json:"libraries"`
	Skipped   int `json:"skipped"`
	Ignored   int `json:"ignored"`
}

// Index holds position -> address and library id -> library mappings.
type Index struct {
	positions map[string]string
	libs      map[string]Library
	libOrder  []string
	stats     Stats
	logger    *log.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for skipped-line diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// New returns an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		positions: make(map[string]string),
		libs:      make(map[string]Library),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Parse reads a whole feed. Malformed lines are skipped and counted.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Index, error) {
	ix := New(opts...)
	err := trace.ScanLines(r, func(lineNo int, line string) error {
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := ix.Add(line); err != nil {
			ix.logger.Debug("skipping index line", "line", lineNo, "err", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// Add folds one feed line into the index. Later E lines for the same
// position replace earlier ones.
func (ix *Index) Add(line string) error {
	ix.stats.Lines++
	if line == "" {
		ix.stats.Ignored++
		return nil
	}
	switch line[0] {
	case 'E':
		f := strings.Fields(line)
		if len(f) <= execPositionField {
			ix.stats.Skipped++
			return shortLine("E", execPositionField+1, len(f))
		}
		if _, ok := ix.positions[f[execPositionField]]; !ok {
			ix.stats.Positions++
		}
		ix.positions[f[execPositionField]] = f[execAddressField]
	case 'L':
		f := strings.Fields(line)
		if len(f) <= libNameField {
			ix.stats.Skipped++
			return shortLine("L", libNameField+1, len(f))
		}
		id := f[libIDField]
		if _, ok := ix.libs[id]; !ok {
			ix.libOrder = append(ix.libOrder, id)
			ix.stats.Libraries++
		}
		ix.libs[id] = Library{ID: id, Base: f[libBaseField], Name: f[libNameField]}
	default:
		ix.stats.Ignored++
	}
	return nil
}

func shortLine(kind string, want, got int) error {
	return apperrors.Wrap(apperrors.ErrCodeInvalidIndexLine, ErrShortLine, "%s line needs %d fields, got %d", kind, want, got)
}

// Stats returns counters for everything added so far.
func (ix *Index) Stats() Stats { return ix.stats }

// Len returns the number of distinct positions.
func (ix *Index) Len() int { return len(ix.positions) }

// Lookup returns the raw address token recorded for position.
func (ix *Index) Lookup(position string) (string, bool) {
	a, ok := ix.positions[position]
	return a, ok
}

// Address returns the parsed address recorded for position. It reports
// false when the position is unknown or the token is not hexadecimal.
func (ix *Index) Address(position string) (uint64, bool) {
	raw, ok := ix.positions[position]
	if !ok {
		return 0, false
	}
	addr, err := ParseHex(raw)
	if err != nil {
		return 0, false
	}
	return addr, true
}

// Library returns the library with the given id.
func (ix *Index) Library(id string) (Library, bool) {
	l, ok := ix.libs[id]
	return l, ok
}

// Libraries returns all libraries in feed order.
func (ix *Index) Libraries() []Library {
	out := make([]Library, 0, len(ix.libOrder))
	for _, id := range ix.libOrder {
		out = append(out, ix.libs[id])
	}
	return out
}

// LibraryFor returns the library with the highest base at or below addr.
// Libraries whose base is not hexadecimal are ignored.
func (ix *Index) LibraryFor(addr uint64) (Library, bool) {
	type based struct {
		base uint64
		lib  Library
	}
	var cands []based
	for _, l := range ix.libs {
		b, err := ParseHex(l.Base)
		if err != nil || b > addr {
			continue
		}
		cands = append(cands, based{b, l})
	}
	if len(cands) == 0 {
		return Library{}, false
	}
	best := slices.MaxFunc(cands, func(a, b based) int {
		if c := cmp.Compare(a.base, b.base); c != 0 {
			return c
		}
		return cmp.Compare(b.lib.ID, a.lib.ID)
	})
	return best.lib, true
}

// ParseHex parses a hexadecimal address with or without a 0x prefix.
func ParseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("empty address")
	}
	return strconv.ParseUint(s, 16, 64)
}
