package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// progress animates a spinner line on stderr while a long step runs. It is
// not a bubbletea program; only the frame set comes from bubbles.
type progress struct {
	out    io.Writer
	msg    string
	frames spinner.Spinner
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func startProgress(ctx context.Context, msg string) *progress {
	return startProgressTo(ctx, os.Stderr, msg)
}

func startProgressTo(ctx context.Context, out io.Writer, msg string) *progress {
	ctx, cancel := context.WithCancel(ctx)
	p := &progress{
		out:    out,
		msg:    msg,
		frames: spinner.MiniDot,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.loop(ctx)
	return p
}

func (p *progress) loop(ctx context.Context) {
	defer close(p.done)
	defer p.clear()

	tick := time.NewTicker(p.frames.FPS)
	defer tick.Stop()
	for i := 0; ; i++ {
		frame := p.frames.Frames[i%len(p.frames.Frames)]
		fmt.Fprintf(p.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(p.msg))
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func (p *progress) clear() {
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", len(p.msg)+4))
}

// Done stops the animation and waits for the line to be cleared. Calling it
// again is a no-op.
func (p *progress) Done() {
	p.once.Do(func() {
		p.cancel()
		<-p.done
	})
}

// Fail stops the animation and prints msg as an error.
func (p *progress) Fail(msg string) {
	p.Done()
	printError("%s", msg)
}
