package taint

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/trace"
)

// SkipFunc observes a line that ingestion skipped.
type SkipFunc func(lineNo int, line string, err error)

// Stats summarizes an ingestion run.
type Stats struct {
	Lines        int `json:"lines"`
	Records      int `json:"records"`
	Skipped      int `json:"skipped"`
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	Placeholders int `json:"placeholders"`
}

// Builder turns trace lines into a Graph one line at a time.
type Builder struct {
	graph  *Graph
	parse  func(string) (trace.Record, error)
	logger *log.Logger
	onSkip SkipFunc
	lineNo int
	stats  Stats
}

// Option configures a Builder.
type Option func(*Builder)

// WithSchema fixes the record column layout. By default the layout is
// picked per line by [trace.ParseRecord].
func WithSchema(s trace.Schema) Option {
	return func(b *Builder) { b.parse = s.Parse }
}

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// OnSkip registers a callback for skipped lines.
func OnSkip(fn SkipFunc) Option {
	return func(b *Builder) { b.onSkip = fn }
}

// WithGraph makes the builder extend an existing graph.
func WithGraph(g *Graph) Option {
	return func(b *Builder) {
		if g != nil {
			b.graph = g
		}
	}
}

// NewBuilder returns a builder over an empty graph.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		graph:  NewGraph(),
		parse:  trace.ParseRecord,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Graph returns the graph being built.
func (b *Builder) Graph() *Graph { return b.graph }

// Stats returns counters for everything ingested so far.
func (b *Builder) Stats() Stats {
	s := b.stats
	s.Nodes = b.graph.NodeCount()
	s.Edges = b.graph.EdgeCount()
	s.Placeholders = len(b.graph.Placeholders())
	return s
}

// Ingest folds one trace line into the graph.
//
// The record is absorbed into its node, then every id in child_c and
// child_d gets a node (a placeholder if unseen), an edge from the record
// annotated with the record's edgeann, and the edge type as its NodeAttr
// unless one was already set.
//
// A line without an id is skipped: Ingest logs it, notifies the skip
// callback and returns an INVALID_RECORD error wrapping [trace.ErrNoUUID]. The graph is
// left untouched.
func (b *Builder) Ingest(line string) error {
	b.lineNo++
	return b.ingest(b.lineNo, line)
}

func (b *Builder) ingest(lineNo int, line string) error {
	b.stats.Lines++
	rec, err := b.parse(line)
	if err != nil {
		b.stats.Skipped++
		b.logger.Debug("skipping trace line", "line", lineNo, "err", err)
		if b.onSkip != nil {
			b.onSkip(lineNo, line, err)
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidRecord, err, "trace line %d", lineNo)
	}
	b.stats.Records++

	reg := b.graph.reg
	parent := reg.Absorb(rec)
	b.link(parent, rec.ChildC, EdgeC)
	b.link(parent, rec.ChildD, EdgeD)
	return nil
}

func (b *Builder) link(parent *Node, children []string, typ string) {
	for _, id := range children {
		b.graph.reg.GetOrCreate(id)
		// Both endpoints exist, AddEdge cannot fail.
		_ = b.graph.AddEdge(Edge{From: parent.UUID, To: id, Type: typ, Anno: parent.EdgeAnn})
		b.graph.reg.SetAttr(id, typ)
	}
}

// IngestReader ingests every line of r. Skipped lines do not stop the run;
// only read errors and context cancellation are returned.
func (b *Builder) IngestReader(ctx context.Context, r io.Reader) error {
	return trace.ScanLines(r, func(lineNo int, line string) error {
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		b.lineNo = lineNo
		_ = b.ingest(lineNo, line)
		return nil
	})
}

// Build is a convenience that ingests r into a fresh graph.
func Build(ctx context.Context, r io.Reader, opts ...Option) (*Graph, Stats, error) {
	b := NewBuilder(opts...)
	if err := b.IngestReader(ctx, r); err != nil {
		return nil, Stats{}, err
	}
	return b.Graph(), b.Stats(), nil
}
