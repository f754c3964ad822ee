package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/taintview/pkg/index"
	"github.com/matzehuels/taintview/pkg/taint"
)

func indexOf(t *testing.T, lines ...string) *index.Index {
	t.Helper()
	ix := index.New()
	for _, l := range lines {
		require.NoError(t, ix.Add(l))
	}
	return ix
}

func TestResolve_PrefersEndInd(t *testing.T) {
	nav := New(indexOf(t,
		"E 0x401000 a b c 20",
		"E 0x402000 a b c 10",
	))
	addr, ok := nav.Resolve(&taint.Node{UUID: "1", StartInd: "10:1", EndInd: "20:3"})
	assert.True(t, ok)
	assert.Equal(t, uint64(0x401000), addr)
}

func TestResolve_FallsBackToStartInd(t *testing.T) {
	nav := New(indexOf(t, "E 0x402000 a b c 10"))
	addr, ok := nav.Resolve(&taint.Node{UUID: "1", StartInd: "10:1"})
	assert.True(t, ok)
	assert.Equal(t, uint64(0x402000), addr)
}

func TestResolve_Miss(t *testing.T) {
	nav := New(indexOf(t, "E 0x401000 a b c 20"))
	tests := []struct {
		name string
		node *taint.Node
	}{
		{"unknown position", &taint.Node{UUID: "1", StartInd: "99:0"}},
		{"no index", &taint.Node{UUID: "2"}},
		{"nil node", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := nav.Resolve(tt.node)
			assert.False(t, ok)
			assert.Equal(t, uint64(0), nav.ResolveOrZero(tt.node))
		})
	}
}

func TestResolve_NilIndex(t *testing.T) {
	nav := New(nil)
	_, ok := nav.Resolve(&taint.Node{StartInd: "1:0"})
	assert.False(t, ok)
}

// caller at 0x1000:
//
//	call 0x2000          e8 fb 0f 00 00
//	call 0x3000          e8 f6 1f 00 00
//	call rax             ff d0
//	call 0x2000          e8 ef 0f 00 00
//	ret                  c3
var callerCode = []byte{
	0xe8, 0xfb, 0x0f, 0x00, 0x00,
	0xe8, 0xf6, 0x1f, 0x00, 0x00,
	0xff, 0xd0,
	0xe8, 0xef, 0x0f, 0x00, 0x00,
	0xc3,
}

func testCode() *StaticCode {
	return NewStaticCode(
		Function{Name: "helper", Start: 0x2000, Code: []byte{0xc3}, Mode: 64},
		Function{Name: "main", Start: 0x1000, Code: callerCode, Mode: 64},
	)
}

func TestExpandCallGraph(t *testing.T) {
	nav := New(nil, WithCode(testCode()))

	cg, err := nav.ExpandCallGraph(context.Background(), 0x1005)
	require.NoError(t, err)
	assert.Equal(t, "main", cg.Caller)
	assert.Equal(t, uint64(0x1000), cg.Address)
	assert.Equal(t, map[string]bool{"helper": true, "0x3000": true}, cg.Callees)
	assert.Equal(t, []string{"0x3000", "helper"}, cg.Names())
}

func TestExpandCallGraph_Errors(t *testing.T) {
	_, err := New(nil).ExpandCallGraph(context.Background(), 0x1000)
	assert.ErrorIs(t, err, ErrNoCodeSource)

	nav := New(nil, WithCode(testCode()))
	_, err = nav.ExpandCallGraph(context.Background(), 0x5000)
	assert.ErrorIs(t, err, ErrNoFunction)
}

func TestCallsFor(t *testing.T) {
	nav := New(indexOf(t, "E 0x1000 a b c 7"), WithCode(testCode()))

	cg, err := nav.CallsFor(context.Background(), &taint.Node{UUID: "1", StartInd: "7:0"})
	require.NoError(t, err)
	assert.True(t, cg.Callees["helper"])

	_, err = nav.CallsFor(context.Background(), &taint.Node{UUID: "2", StartInd: "8:0"})
	assert.True(t, errors.Is(err, ErrUnresolved))
}

func TestStaticCode(t *testing.T) {
	sc := testCode()
	f, err := sc.FunctionAt(0x1011)
	require.NoError(t, err)
	assert.Equal(t, "main", f.Name)

	_, err = sc.FunctionAt(0x1012)
	assert.ErrorIs(t, err, ErrNoFunction)
	_, err = sc.FunctionAt(0x10)
	assert.ErrorIs(t, err, ErrNoFunction)

	name, ok := sc.SymbolAt(0x2000)
	assert.True(t, ok)
	assert.Equal(t, "helper", name)
	_, ok = sc.SymbolAt(0x2001)
	assert.False(t, ok)
}

// testdata/calls.elf is assembled from testdata/calls.s with
// "as --64 && ld -m elf_x86_64".
func TestOpenELF(t *testing.T) {
	sc, err := OpenELF("testdata/calls.elf")
	require.NoError(t, err)

	tests := []struct {
		name  string
		addr  uint64
		size  int
		calls []string
	}{
		{"main", 0x40100e, 0x14, []string{"helper", "leaf"}},
		{"helper", 0x401022, 6, []string{"leaf"}},
		{"leaf", 0x401028, 1, []string{}},
	}
	nav := New(nil, WithCode(sc))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := sc.SymbolAt(tt.addr)
			require.True(t, ok)
			assert.Equal(t, tt.name, name)

			f, err := sc.FunctionAt(tt.addr)
			require.NoError(t, err)
			assert.Len(t, f.Code, tt.size)
			assert.Equal(t, len(f.Code), cap(f.Code), "function bytes must not expose the rest of the section")
			assert.Equal(t, 64, f.Mode)

			cg, err := nav.ExpandCallGraph(context.Background(), tt.addr+uint64(tt.size)-1)
			require.NoError(t, err)
			assert.Equal(t, tt.name, cg.Caller)
			assert.Equal(t, tt.calls, cg.Names())
		})
	}
}

func TestOpenELF_Missing(t *testing.T) {
	_, err := OpenELF("/nonexistent/binary")
	assert.Error(t, err)
}
