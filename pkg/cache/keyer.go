package cache

// GraphKeyOpts are the inputs that change how a trace becomes a graph.
type GraphKeyOpts struct {
	Schema string `json:"schema,omitempty"`
}

// LayoutKeyOpts are the inputs that change computed positions.
type LayoutKeyOpts struct {
	Strategy     string  `json:"strategy"`
	Policy       string  `json:"policy,omitempty"`
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
	Seed         uint64  `json:"seed,omitempty"`
	Iterations   int     `json:"iterations,omitempty"`
	SingleBranch bool    `json:"single_branch,omitempty"`
	BreakCycles  bool    `json:"break_cycles,omitempty"`
	RowSlots     int     `json:"row_slots,omitempty"`
	RowHeight    float64 `json:"row_height,omitempty"`
}

// ArtifactKeyOpts are the inputs that change a rendered diagram.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Detailed   bool   `json:"detailed,omitempty"`
	EdgeLabels bool   `json:"edge_labels,omitempty"`
	Pinned     bool   `json:"pinned,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey keys a built graph by the fingerprint of its trace.
	GraphKey(traceHash string, opts GraphKeyOpts) string

	// LayoutKey keys positions by the fingerprint of the graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered diagram by the fingerprint of its layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) GraphKey(traceHash string, opts GraphKeyOpts) string {
	return hashKey("graph", traceHash, opts)
}

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
