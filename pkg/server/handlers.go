package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/navigator"
	"github.com/matzehuels/taintview/pkg/taint"
)

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
}

// NodeResponse is one node with its display attributes.
type NodeResponse struct {
	graph.Node
	Class string `json:"class"`
	Label string `json:"label"`
}

// AddressResponse is returned by /nodes/{uuid}/address.
type AddressResponse struct {
	UUID    string `json:"uuid"`
	Address string `json:"address"`
	Library string `json:"library,omitempty"`
}

// CallsResponse is returned by /nodes/{uuid}/calls.
type CallsResponse struct {
	UUID    string   `json:"uuid"`
	Caller  string   `json:"caller"`
	Address string   `json:"address"`
	Callees []string `json:"callees"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	g := s.Graph()
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Nodes: g.NodeCount(), Edges: g.EdgeCount()})
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	gj := graph.FromTaint(s.Graph())
	gj.Policy = string(s.defaults.PolicyValue())
	writeJSON(w, http.StatusOK, gj)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts := s.defaults
	q := r.URL.Query()
	if v := q.Get("strategy"); v != "" {
		opts.Strategy = v
	}
	if v := q.Get("policy"); v != "" {
		opts.Policy = v
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid scale: %q", v))
			return
		}
		opts.Scale = scale
	}
	if err := opts.ValidateForLayout(); err != nil {
		writeError(w, err)
		return
	}

	snap := s.snapshot()
	key := fmt.Sprintf("%d|%+v", snap.gen, opts.LayoutKeyOpts())
	// Callers sharing a key share the computation, so it must outlive
	// whichever request started it.
	ctx := context.WithoutCancel(r.Context())
	v, err, shared := s.layouts.Do(key, func() (any, error) {
		return s.runner.Layout(ctx, snap.graph, opts)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if shared {
		s.logger.Debug("layout shared", "strategy", opts.Strategy)
	}
	writeJSON(w, http.StatusOK, v.(graph.Layout))
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NodeResponse{
		Node:  graph.NodeOf(n),
		Class: string(n.Class()),
		Label: n.Label(),
	})
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	n, ok := s.lookup(w, r)
	if !ok {
		return
	}
	addr, ok := s.nav.Resolve(n)
	if !ok {
		writeError(w, apperrors.New(apperrors.ErrCodeUnresolved, "no address recorded for node %s", n.UUID))
		return
	}
	resp := AddressResponse{UUID: n.UUID, Address: fmt.Sprintf("%#x", addr)}
	if lib, ok := s.nav.Index().LibraryFor(addr); ok {
		resp.Library = lib.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	n, ok := s.lookup(w, r)
	if !ok {
		return
	}
	cg, err := s.nav.CallsFor(r.Context(), n)
	switch {
	case errors.Is(err, navigator.ErrUnresolved):
		writeError(w, apperrors.Wrap(apperrors.ErrCodeUnresolved, err, "no address recorded for node %s", n.UUID))
		return
	case errors.Is(err, navigator.ErrNoCodeSource):
		writeError(w, apperrors.Wrap(apperrors.ErrCodeUnavailable, err, "call expansion needs a binary"))
		return
	case errors.Is(err, navigator.ErrNoFunction):
		writeError(w, apperrors.Wrap(apperrors.ErrCodeNotFound, err, "no function contains the address of node %s", n.UUID))
		return
	case err != nil:
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CallsResponse{
		UUID:    n.UUID,
		Caller:  cg.Caller,
		Address: fmt.Sprintf("%#x", cg.Address),
		Callees: cg.Names(),
	})
}

// lookup fetches the node named by the uuid path parameter, writing the
// error response itself when there is none.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*taint.Node, bool) {
	id := chi.URLParam(r, "uuid")
	if err := apperrors.ValidateNodeID(id); err != nil {
		writeError(w, err)
		return nil, false
	}
	n, ok := s.Graph().Node(id)
	if !ok {
		writeError(w, notFound("node %s not found", id))
		return nil, false
	}
	return n, true
}

func notFound(format string, args ...any) error {
	return apperrors.New(apperrors.ErrCodeNotFound, format, args...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), ErrorResponse{Code: code, Message: apperrors.UserMessage(err)})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeUnresolved:
		return http.StatusNotFound
	case apperrors.ErrCodeGraphHasCycle:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeUnavailable:
		return http.StatusNotImplemented
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidNodeID,
		apperrors.ErrCodeInvalidPolicy, apperrors.ErrCodeUnsupportedStrategy,
		apperrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
