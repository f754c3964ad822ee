package navigator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/arch/x86/x86asm"

	"github.com/matzehuels/taintview/pkg/index"
	"github.com/matzehuels/taintview/pkg/taint"
)

var (
	// ErrNoCodeSource is returned by call-graph expansion when the
	// navigator was built without a CodeSource.
	ErrNoCodeSource = errors.New("no code source configured")

	// ErrNoFunction is returned by a CodeSource when no function contains
	// the requested address.
	ErrNoFunction = errors.New("no function at address")
)

// Function is a contiguous block of machine code.
type Function struct {
	Name  string
	Start uint64
	Code  []byte
	Mode  int // 32 or 64
}

// CodeSource supplies function bodies and symbol names.
type CodeSource interface {
	// FunctionAt returns the function containing addr, or ErrNoFunction.
	FunctionAt(addr uint64) (Function, error)
	// SymbolAt returns the name of the function starting at addr.
	SymbolAt(addr uint64) (string, bool)
}

// CallGraph is the one-level call expansion of a function.
type CallGraph struct {
	Caller  string          `json:"caller"`
	Address uint64          `json:"address"`
	Callees map[string]bool `json:"callees"`
}

// Names returns the callee labels sorted.
func (c CallGraph) Names() []string {
	names := make([]string, 0, len(c.Callees))
	for n := range c.Callees {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Navigator resolves nodes to addresses and expands call graphs.
type Navigator struct {
	index  *index.Index
	code   CodeSource
	logger *log.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithCode sets the CodeSource used by ExpandCallGraph.
func WithCode(cs CodeSource) Option {
	return func(n *Navigator) { n.code = cs }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}

// New returns a navigator over ix. A nil index resolves nothing.
func New(ix *index.Index, opts ...Option) *Navigator {
	if ix == nil {
		ix = index.New()
	}
	n := &Navigator{index: ix, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Index returns the address index.
func (n *Navigator) Index() *index.Index { return n.index }

// Resolve returns the address recorded for node's index. EndInd is
// preferred over StartInd, and only the part before the first ':' is used
// as the lookup key. A missing key or a non-hex address reports false.
func (n *Navigator) Resolve(node *taint.Node) (uint64, bool) {
	if node == nil {
		return 0, false
	}
	ind := node.Index()
	if ind == "" {
		return 0, false
	}
	key, _, _ := strings.Cut(ind, ":")
	addr, ok := n.index.Address(key)
	if !ok {
		n.logger.Debug("unresolved node", "uuid", node.UUID, "position", key)
	}
	return addr, ok
}

// ResolveOrZero is Resolve with misses mapped to address 0.
func (n *Navigator) ResolveOrZero(node *taint.Node) uint64 {
	addr, _ := n.Resolve(node)
	return addr
}

// ExpandCallGraph decodes the function containing addr and collects the
// targets of its direct calls. Targets are labelled with their symbol name,
// or "0x..." when unnamed. Indirect calls have no static target and are
// not reported.
func (n *Navigator) ExpandCallGraph(ctx context.Context, addr uint64) (CallGraph, error) {
	if n.code == nil {
		return CallGraph{}, ErrNoCodeSource
	}
	fn, err := n.code.FunctionAt(addr)
	if err != nil {
		return CallGraph{}, fmt.Errorf("function at %#x: %w", addr, err)
	}
	mode := fn.Mode
	if mode == 0 {
		mode = 64
	}

	cg := CallGraph{Caller: fn.Name, Address: fn.Start, Callees: make(map[string]bool)}
	if cg.Caller == "" {
		cg.Caller = fmt.Sprintf("%#x", fn.Start)
	}

	for off := 0; off < len(fn.Code); {
		if off%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return CallGraph{}, err
			}
		}
		inst, err := x86asm.Decode(fn.Code[off:], mode)
		if err != nil {
			n.logger.Debug("undecodable byte", "pc", fmt.Sprintf("%#x", fn.Start+uint64(off)), "err", err)
			off++
			continue
		}
		pc := fn.Start + uint64(off)
		off += inst.Len
		if inst.Op != x86asm.CALL {
			continue
		}
		rel, ok := inst.Args[0].(x86asm.Rel)
		if !ok {
			continue
		}
		target := pc + uint64(inst.Len) + uint64(int64(rel))
		if mode == 32 {
			target &= 0xffffffff
		}
		cg.Callees[n.label(target)] = true
	}
	return cg, nil
}

func (n *Navigator) label(addr uint64) string {
	if name, ok := n.code.SymbolAt(addr); ok && name != "" {
		return name
	}
	return fmt.Sprintf("%#x", addr)
}

// CallsFor resolves node and expands the call graph of its function.
func (n *Navigator) CallsFor(ctx context.Context, node *taint.Node) (CallGraph, error) {
	addr, ok := n.Resolve(node)
	if !ok {
		return CallGraph{}, fmt.Errorf("node %s: %w", node.UUID, ErrUnresolved)
	}
	return n.ExpandCallGraph(ctx, addr)
}

// ErrUnresolved is returned by CallsFor when the node has no address.
var ErrUnresolved = errors.New("no address recorded for node")
