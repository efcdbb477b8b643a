package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/importer"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/render/nodelink"
	"github.com/matzehuels/kintree/pkg/store"
)

// importResponse is returned by POST /v1/import.
type importResponse struct {
	Document graph.Document   `json:"document"`
	Import   *importer.Result `json:"import"`
}

// treeRequest is the body of POST and PUT /v1/trees.
type treeRequest struct {
	Name     string         `json:"name"`
	Document graph.Document `json:"document"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

// =============================================================================
// Stateless
// =============================================================================

func (s *Server) importPayload(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	payload, err := importer.Decode(r.Body, format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, res, err := s.runner.Import(r.Context(), payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, importResponse{Document: graph.Export(g), Import: res})
}

func (s *Server) computeLayout(w http.ResponseWriter, r *http.Request) {
	kind, cfg, err := s.layoutParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var doc graph.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document"))
		return
	}
	g, err := graph.Import(doc, family.WithLogger(s.logger))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	res, hit, err := s.runner.Layout(r.Context(), g, kind, cfg)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, graph.FromResult(res, g))
}

// =============================================================================
// Trees
// =============================================================================

func (s *Server) listTrees(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) createTree(w http.ResponseWriter, r *http.Request) {
	s.saveTree(w, r, store.NewID(), http.StatusCreated)
}

func (s *Server) putTree(w http.ResponseWriter, r *http.Request) {
	s.saveTree(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

// saveTree validates the document by importing it, then stores its
// structure. Stored layouts are dropped since they no longer match.
func (s *Server) saveTree(w http.ResponseWriter, r *http.Request, id string, status int) {
	if err := store.ValidateID(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	var req treeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode tree"))
		return
	}
	g, err := graph.Import(req.Document, family.WithLogger(s.logger))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	t := &store.Tree{ID: id, Name: req.Name, Document: graph.Export(g).Structure()}
	if err := s.store.Save(r.Context(), t); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, status, t)
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTree(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) treeLayout(w http.ResponseWriter, r *http.Request) {
	g, res, hit, err := s.layoutTree(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, graph.FromResult(res, g))
}

func (s *Server) renderTree(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	g, res, _, err := s.layoutTree(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	data, hit, err := s.runner.Render(r.Context(), g, res, format, nodelink.Options{Detailed: detailed})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// layoutTree loads a stored tree and lays it out. The layout stored with the
// tree is used when its settings match. A fresh one is stored with the tree
// unless the tree was replaced or deleted in the meantime.
func (s *Server) layoutTree(r *http.Request) (*family.Graph, *layout.Result, bool, error) {
	kind, cfg, err := s.layoutParams(r)
	if err != nil {
		return nil, nil, false, err
	}
	t, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, false, err
	}
	g, err := graph.Import(t.Document, family.WithLogger(s.logger))
	if err != nil {
		return nil, nil, false, errors.Wrap(errors.ErrCodeInternal, err, "stored tree %s", t.ID)
	}

	if stored, ok := t.Layouts[string(kind)]; ok && stored.Config == cfg.WithDefaults() && len(stored.Nodes) == g.MemberCount() {
		res := stored.Result()
		if err := res.Apply(g); err == nil {
			return g, res, true, nil
		}
	}

	res, hit, err := s.runner.Layout(r.Context(), g, kind, cfg)
	if err != nil {
		return nil, nil, false, err
	}
	err = s.store.SaveLayout(r.Context(), t.ID, string(kind), graph.FromResult(res, g), t.UpdatedAt)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrCodeNotFound), errors.Is(err, errors.ErrCodeConflict):
		s.logger.Debug("layout not stored, tree changed", "tree", t.ID, "kind", kind)
	default:
		s.logger.Warn("save layout", "tree", t.ID, "kind", kind, "err", err)
	}
	return g, res, hit, nil
}

// =============================================================================
// Parameters
// =============================================================================

// requestFormat reads ?format=, falling back to the Content-Type and then
// to JSON.
func requestFormat(r *http.Request) (importer.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return importer.ParseFormat(f)
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "text/csv":
		return importer.FormatCSV, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return importer.FormatYAML, nil
	case "application/toml":
		return importer.FormatTOML, nil
	}
	return importer.FormatJSON, nil
}

// layoutParams reads ?kind= and the optional spacing overrides on top of
// the server's layout config.
func (s *Server) layoutParams(r *http.Request) (layout.Kind, layout.Config, error) {
	q := r.URL.Query()
	kind := pipeline.DefaultKind
	if k := q.Get("kind"); k != "" {
		parsed, err := layout.ParseKind(k)
		if err != nil {
			return "", layout.Config{}, err
		}
		kind = parsed
	}

	cfg := s.cfg.Layout
	for name, field := range map[string]*float64{
		"horizontal_spacing": &cfg.HorizontalSpacing,
		"vertical_spacing":   &cfg.VerticalSpacing,
		"radial_step":        &cfg.RadialStep,
		"inner_radius":       &cfg.InnerRadius,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return "", layout.Config{}, errors.New(errors.ErrCodeInvalidInput, "%s must be a positive number, got %q", name, v)
		}
		*field = f
	}
	return kind, cfg.WithDefaults(), nil
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
		return
	}
	w.Header().Set("X-Cache", "miss")
}
