package trace

import (
	"bufio"
	"io"
	"strings"
)

// MaxLineSize bounds a single trace line. Long child lists can exceed
// bufio's 64KiB default.
const MaxLineSize = 4 << 20

// ScanLines calls fn for each non-blank line of r with its 1-based number.
// Trailing carriage returns are stripped. Scanning stops at the first error
// returned by fn.
func ScanLines(r io.Reader, fn func(lineNo int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}
