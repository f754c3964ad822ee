package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
)

const feed = `E 0x401000 t0 r0 x 10 extra
E 401020 t0 r0 x 20
L 1 0x400000 notepad.exe
L 2 0x7ff00000 kernel32.dll
E short 1
# comment
X 1 2 3 4 5
L 3
E 0x401050 t0 r0 x 10
`

func TestParse(t *testing.T) {
	ix, err := Parse(context.Background(), strings.NewReader(feed))
	require.NoError(t, err)

	raw, ok := ix.Lookup("20")
	assert.True(t, ok)
	assert.Equal(t, "401020", raw)

	// The later E line for position 10 wins.
	addr, ok := ix.Address("10")
	assert.True(t, ok)
	assert.Equal(t, uint64(0x401050), addr)

	_, ok = ix.Address("30")
	assert.False(t, ok)

	lib, ok := ix.Library("2")
	require.True(t, ok)
	assert.Equal(t, "0x7ff00000 kernel32.dll", lib.String())

	st := ix.Stats()
	assert.Equal(t, 9, st.Lines)
	assert.Equal(t, 2, st.Positions)
	assert.Equal(t, 2, st.Libraries)
	assert.Equal(t, 2, st.Skipped)
	assert.Equal(t, 2, st.Ignored)
	assert.Equal(t, 2, ix.Len())
}

func TestAdd_ShortLines(t *testing.T) {
	ix := New()
	for _, line := range []string{"E 0x1 a b c", "L 1 0x400000"} {
		err := ix.Add(line)
		assert.True(t, errors.Is(err, ErrShortLine), line)
		assert.Equal(t, apperrors.ErrCodeInvalidIndexLine, apperrors.GetCode(err), line)
	}
	assert.NoError(t, ix.Add("Q anything"))
	assert.Equal(t, 0, ix.Len())
}

func TestAddress_BadHex(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add("E zzz a b c 5"))
	_, ok := ix.Address("5")
	assert.False(t, ok)
}

func TestLibraryFor(t *testing.T) {
	ix := New()
	for _, l := range []string{
		"L 1 0x400000 app.exe",
		"L 2 0x7ff00000 kernel32.dll",
		"L 3 nothex broken.dll",
	} {
		require.NoError(t, ix.Add(l))
	}

	lib, ok := ix.LibraryFor(0x401000)
	require.True(t, ok)
	assert.Equal(t, "app.exe", lib.Name)

	lib, ok = ix.LibraryFor(0x7ff00010)
	require.True(t, ok)
	assert.Equal(t, "kernel32.dll", lib.Name)

	_, ok = ix.LibraryFor(0x1000)
	assert.False(t, ok)

	names := []string{}
	for _, l := range ix.Libraries() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"app.exe", "kernel32.dll", "broken.dll"}, names)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x401000", 0x401000, false},
		{"0X10", 0x10, false},
		{"deadbeef", 0xdeadbeef, false},
		{"", 0, true},
		{"0x", 0, true},
		{"0xg1", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParse_Cancelled(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteString("E 0x1 a b c 1\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, strings.NewReader(sb.String()))
	assert.ErrorIs(t, err, context.Canceled)
}
