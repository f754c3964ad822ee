// Package source opens trace and index files from any location the afs
// storage layer understands: local paths, file:// URLs and object stores
// such as s3:// or gs:// when the matching afs connector is linked in.
//
// "-" reads standard input. Locations ending in ".gz" are decompressed on
// the fly.
package source

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/viant/afs"
	"golang.org/x/time/rate"

	"github.com/matzehuels/taintview/pkg/index"
	"github.com/matzehuels/taintview/pkg/retry"
	"github.com/matzehuels/taintview/pkg/taint"
)

// Stdin is the location that reads standard input.
const Stdin = "-"

// Loader opens locations through an afs service.
type Loader struct {
	fs      afs.Service
	stdin   io.Reader
	logger  *log.Logger
	limiter *rate.Limiter
	retry   retry.Policy
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithStdin replaces standard input, mostly for tests.
func WithStdin(r io.Reader) Option {
	return func(ld *Loader) { ld.stdin = r }
}

// WithRetry sets how failed remote opens are retried. Local paths are
// never retried.
func WithRetry(p retry.Policy) Option {
	return func(ld *Loader) { ld.retry = p }
}

// WithRateLimit paces opens through the storage layer. Watchers polling an
// object store use it to stay under request quotas.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(ld *Loader) { ld.limiter = rate.NewLimiter(limit, burst) }
}

// New returns a Loader backed by afs.New().
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:     afs.New(),
		stdin:  os.Stdin,
		logger: log.Default(),
		retry:  retry.Policy{Attempts: 3, Delay: 500 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// URL normalizes a location for afs. Relative paths become absolute.
func URL(location string) (string, error) {
	if strings.Contains(location, "://") || filepath.IsAbs(location) {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// Open streams a location.
func (l *Loader) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if location == Stdin {
		rc = io.NopCloser(l.stdin)
	} else {
		url, err := URL(location)
		if err != nil {
			return nil, err
		}
		if rc, err = l.openURL(ctx, url); err != nil {
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
	}

	if !strings.HasSuffix(location, ".gz") {
		return rc, nil
	}
	zr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("gunzip %s: %w", location, err)
	}
	return &gzipReadCloser{Reader: zr, under: rc}, nil
}

func (l *Loader) openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := retry.Do(ctx, l.retry, func() error {
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		rc, err = l.fs.OpenURL(ctx, url)
		if err != nil && isRemote(url) && ctx.Err() == nil {
			l.logger.Debug("open failed, retrying", "url", url, "err", err)
			return retry.Transient(err)
		}
		return err
	})
	return rc, err
}

// isRemote reports whether url leaves the local filesystem.
func isRemote(url string) bool {
	scheme, _, ok := strings.Cut(url, "://")
	return ok && scheme != "file"
}

// ReadAll returns the full contents of a location.
func (l *Loader) ReadAll(ctx context.Context, location string) ([]byte, error) {
	rc, err := l.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Exists reports whether location can be opened. Stdin always exists.
func (l *Loader) Exists(ctx context.Context, location string) (bool, error) {
	if location == Stdin {
		return true, nil
	}
	url, err := URL(location)
	if err != nil {
		return false, err
	}
	return l.fs.Exists(ctx, url)
}

// Trace builds a graph from a trace location.
func (l *Loader) Trace(ctx context.Context, location string, opts ...taint.Option) (*taint.Graph, taint.Stats, error) {
	rc, err := l.Open(ctx, location)
	if err != nil {
		return nil, taint.Stats{}, err
	}
	defer rc.Close()

	opts = append([]taint.Option{taint.WithLogger(l.logger)}, opts...)
	g, stats, err := taint.Build(ctx, rc, opts...)
	if err != nil {
		return nil, stats, fmt.Errorf("read trace %s: %w", location, err)
	}
	l.logger.Debug("trace loaded", "location", location, "nodes", stats.Nodes, "edges", stats.Edges, "skipped", stats.Skipped)
	return g, stats, nil
}

// Index parses an address index location.
func (l *Loader) Index(ctx context.Context, location string, opts ...index.Option) (*index.Index, error) {
	rc, err := l.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	opts = append([]index.Option{index.WithLogger(l.logger)}, opts...)
	ix, err := index.Parse(ctx, rc, opts...)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", location, err)
	}
	st := ix.Stats()
	l.logger.Debug("index loaded", "location", location, "positions", st.Positions, "libraries", st.Libraries)
	return ix, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	under io.Closer
}

func (g *gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.under.Close(); err == nil {
		err = cerr
	}
	return err
}
