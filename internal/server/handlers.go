package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cooketh/flow/pkg/buildinfo"
	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/errors"
	flowio "github.com/cooketh/flow/pkg/io"
	"github.com/cooketh/flow/pkg/layout"
	"github.com/cooketh/flow/pkg/pipeline"
	"github.com/cooketh/flow/pkg/storage"
)

// ===== Meta

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// ===== Documents

func (s *Server) listMaps(w http.ResponseWriter, r *http.Request) {
	list, err := s.workspace.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// createMap stores an interchange document ({title, nodes, edges}) as a new
// map.
func (s *Server) createMap(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.workspace.Create(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("created map", "id", saved.ID, "nodes", len(saved.Data.Nodes))
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	doc, err := s.workspace.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) updateMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.workspace.Update(r.Context(), id, doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notifyGraph(r.Context(), id, saved.Data)
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.workspace.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) duplicateMap(w http.ResponseWriter, r *http.Request) {
	dup, err := s.workspace.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

// layoutMap re-positions every node of a stored map with the requested
// style and saves the result.
func (s *Server) layoutMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := r.URL.Query().Get("style")
	if name == "" {
		name = string(layout.StyleMindmap)
	}
	if err := pipeline.ValidateStyle(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	cur, err := s.workspace.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, _, err := s.runner.LayoutWithCacheInfo(r.Context(), cur.Data, pipeline.Options{Style: name})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc := cur.Diagram()
	doc.Graph = g
	saved, err := s.workspace.Update(r.Context(), id, doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notifyGraph(r.Context(), id, saved.Data)
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) exportMap(w http.ResponseWriter, r *http.Request) {
	stored, err := s.workspace.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := renderOptions(r, pipeline.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, stored.Diagram(), opts, true)
}

// ===== Generation and rendering

type generateRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
	Save   bool   `json:"save,omitempty"`
}

type generateResponse struct {
	Document storage.Document `json:"document"`
	Fallback bool             `json:"fallback"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	style := layout.StyleMindmap
	if req.Style != "" {
		if err := pipeline.ValidateStyle(req.Style); err != nil {
			s.writeError(w, r, err)
			return
		}
		style, _ = layout.ParseStyle(req.Style)
	}

	res, err := s.generator.Generate(r.Context(), req.Prompt, style)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !req.Save {
		writeJSON(w, http.StatusOK, generateResponse{Document: storage.FromDiagram("", res.Document), Fallback: res.Fallback})
		return
	}
	saved, err := s.workspace.Create(r.Context(), res.Document)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, generateResponse{Document: saved, Fallback: res.Fallback})
}

// render lays out and renders an interchange document without storing it.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := renderOptions(r, pipeline.FormatSVG)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Style = r.URL.Query().Get("style")
	s.writeArtifact(w, r, doc, opts, false)
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, doc diagram.Document, opts pipeline.Options, attach bool) {
	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	data := res.Artifacts[format]

	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	}
	if attach {
		name := flowio.FileName(doc.Title, pipeline.Extension(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = bytes.NewReader(data).WriteTo(w)
}

// ===== Request helpers

func readDocument(w http.ResponseWriter, r *http.Request) (diagram.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return flowio.ReadJSON(r.Body)
}

func renderOptions(r *http.Request, defaultFormat string) (pipeline.Options, error) {
	q := r.URL.Query()
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = defaultFormat
	}
	opts := pipeline.Options{
		Formats:   []string{format},
		Theme:     q.Get("theme"),
		Direction: strings.ToUpper(q.Get("direction")),
		Detailed:  q.Get("detailed") == "true",
		Refresh:   q.Get("refresh") == "true",
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 || scale > 8 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "scale must be a number in (0, 8]")
		}
		opts.Scale = scale
	}
	if v := q.Get("padding"); v != "" {
		pad, err := strconv.ParseFloat(v, 64)
		if err != nil || pad < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "padding must be a non-negative number")
		}
		opts.Padding = pad
	}
	return opts, nil
}
