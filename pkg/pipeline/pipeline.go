// Package pipeline runs the build → layout → render chain for taintview.
//
// The CLI, the HTTP server and the watcher all go through a [Runner] so they
// share the same defaults, validation and caching.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: read a trace and fold its records into a taint graph
//  2. Layout: compute canvas positions with a layout strategy
//  3. Render: produce SVG, PNG, DOT or layout JSON
//
// Each stage can be run on its own. Stage results are cached by content:
// a trace is keyed by its fingerprint, a layout by the graph fingerprint
// plus every layout option, an artifact by the layout fingerprint.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Trace:    "trace.txt",
//	    Strategy: layout.Branch,
//	    Formats:  []string{pipeline.FormatSVG},
//	})
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taintview/pkg/cache"
	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/taint"
	"github.com/matzehuels/taintview/pkg/trace"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultStrategy is the layout strategy used when none is given.
const DefaultStrategy = layout.Standard

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// Schema names accepted by Options.Schema.
const (
	SchemaAuto  = "auto"
	SchemaFull  = "full"
	SchemaShort = "short"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	Trace   string `json:"trace,omitempty"`  // trace location (path, URL or "-")
	Schema  string `json:"schema,omitempty"` // auto, full or short
	Refresh bool   `json:"refresh,omitempty"`

	// Layout options
	Strategy     string  `json:"strategy,omitempty"`
	Policy       string  `json:"policy,omitempty"`
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
	RowSlots     int     `json:"row_slots,omitempty"`
	RowHeight    float64 `json:"row_height,omitempty"`
	Seed         uint64  `json:"seed,omitempty"`
	Iterations   int     `json:"iterations,omitempty"`
	SingleBranch bool    `json:"single_branch,omitempty"`
	BreakCycles  bool    `json:"break_cycles,omitempty"` // drop back edges before layout

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"`
	EdgeLabels bool     `json:"edge_labels,omitempty"`
	Pinned     bool     `json:"pinned,omitempty"` // keep layout positions in diagrams

	// Runtime options (not serialized)
	Logger       *log.Logger   `json:"-"`
	CustomSchema *trace.Schema `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Graph      *taint.Graph
	GraphHash  string
	BuildStats taint.Stats
	Layout     graph.Layout
	Artifacts  map[string][]byte
	Stats      Stats
	CacheInfo  CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool
	LayoutHit bool
	RenderHit bool // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStrategy checks that a layout strategy exists.
func ValidateStrategy(name string) error {
	if !layout.IsValid(name) {
		return apperrors.New(apperrors.ErrCodeUnsupportedStrategy,
			"invalid strategy: %q (must be one of: %v)", name, layout.Strategies())
	}
	return nil
}

// ValidateSchema checks a schema name.
func ValidateSchema(name string) error {
	if !slices.Contains([]string{"", SchemaAuto, SchemaFull, SchemaShort}, name) {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"invalid schema: %q (must be one of: auto, full, short)", name)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks the trace location and schema.
func (o *Options) ValidateForBuild() error {
	if o.Trace == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "trace is required")
	}
	if err := ValidateSchema(o.Schema); err != nil {
		return err
	}
	if o.CustomSchema != nil {
		if err := o.CustomSchema.Validate(); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid schema")
		}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if _, err := taint.ParsePolicy(o.Policy); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidPolicy, err, "invalid policy")
	}
	return ValidateStrategy(o.Strategy)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// PolicyValue returns the parsed policy, PolicyDefault when invalid.
func (o *Options) PolicyValue() taint.Policy {
	p, err := taint.ParsePolicy(o.Policy)
	if err != nil {
		return taint.PolicyDefault
	}
	return p
}

// LayoutOptions converts to layout engine options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Width:        o.Width,
		Height:       o.Height,
		Scale:        o.Scale,
		RowSlots:     o.RowSlots,
		RowHeight:    o.RowHeight,
		Seed:         o.Seed,
		Iterations:   o.Iterations,
		Policy:       o.PolicyValue(),
		SingleBranch: o.SingleBranch,
	}
}

// BuildOptions returns the graph builder options for the schema settings.
func (o *Options) BuildOptions() []taint.Option {
	switch {
	case o.CustomSchema != nil:
		return []taint.Option{taint.WithSchema(*o.CustomSchema)}
	case o.Schema == SchemaFull:
		return []taint.Option{taint.WithSchema(trace.DefaultSchema)}
	case o.Schema == SchemaShort:
		return []taint.Option{taint.WithSchema(trace.ShortSchema)}
	}
	return nil
}

// GraphKeyOpts returns cache key options for graph building.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	schema := o.Schema
	if o.CustomSchema != nil {
		schema = fmt.Sprintf("custom:%+v", *o.CustomSchema)
	}
	return cache.GraphKeyOpts{Schema: schema}
}

// LayoutKeyOpts returns cache key options for layout computation. Defaults
// are applied first so that explicit and implicit defaults share a key.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	lo := o.LayoutOptions().WithDefaults()
	return cache.LayoutKeyOpts{
		Strategy:     layout.Resolve(o.Strategy, lo.Policy),
		Policy:       string(lo.Policy),
		Width:        lo.Width,
		Height:       lo.Height,
		Scale:        lo.Scale,
		Seed:         lo.Seed,
		Iterations:   lo.Iterations,
		SingleBranch: lo.SingleBranch,
		BreakCycles:  o.BreakCycles,
		RowSlots:     lo.RowSlots,
		RowHeight:    lo.RowHeight,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Detailed:   o.Detailed,
		EdgeLabels: o.EdgeLabels,
		Pinned:     o.Pinned,
	}
}
