// Package server exposes draft editing over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jsphweid/chordpad/chord"
	"github.com/jsphweid/chordpad/config"
	"github.com/jsphweid/chordpad/draft"
	"github.com/jsphweid/chordpad/editor"
	"github.com/jsphweid/chordpad/logging"
	"github.com/jsphweid/chordpad/midi"
	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/sheet"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// max accepted request body
const maxBodyBytes = 1 << 20

type Server struct {
	svc          *draft.Service
	logger       *zap.Logger
	ticksPerChar uint32
	grid         editor.Grid
	origins      []string
	limiter      *rate.Limiter
}

func New(svc *draft.Service, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		svc:          svc,
		logger:       logging.OrNop(logger),
		ticksPerChar: cfg.Midi.TicksPerChar,
		grid:         editor.Grid{CharWidth: cfg.Grid.CharWidth, LineHeight: cfg.Grid.LineHeight},
		origins:      cfg.Server.AllowedOrigins,
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/drafts", s.handleCreate).Methods("POST")
	router.HandleFunc("/drafts", s.handleList).Methods("GET")
	router.HandleFunc("/drafts/{id}", s.handleGet).Methods("GET")
	router.HandleFunc("/drafts/{id}", s.handleDelete).Methods("DELETE")
	router.HandleFunc("/drafts/{id}/save", s.handleSave).Methods("POST")
	router.HandleFunc("/drafts/{id}/chords", s.handleInsert).Methods("POST")
	router.HandleFunc("/drafts/{id}/chords/at", s.handleInsertAt).Methods("POST")
	router.HandleFunc("/drafts/{id}/move", s.handleMove).Methods("POST")
	router.HandleFunc("/drafts/{id}/drop", s.handleDrop).Methods("POST")
	router.HandleFunc("/drafts/{id}/lines/{line:[0-9]+}", s.handleSetText).Methods("PUT")
	router.HandleFunc("/drafts/{id}/lines/{line:[0-9]+}/chords", s.handleRender).Methods("GET")
	router.HandleFunc("/drafts/{id}/lines/{line:[0-9]+}/chords/{chord:[0-9]+}", s.handleEdit).Methods("PUT")
	router.HandleFunc("/drafts/{id}/lines/{line:[0-9]+}/chords/{chord:[0-9]+}", s.handleDeleteChord).Methods("DELETE")
	router.HandleFunc("/drafts/{id}/sheet", s.handleSheet).Methods("GET")
	router.HandleFunc("/drafts/{id}/usage", s.handleUsage).Methods("GET")
	router.HandleFunc("/drafts/{id}/midi", s.handleMidi).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	})
	var h http.Handler = router
	h = rateLimiter(s.limiter)(h)
	h = requestLogger(s.logger)(h)
	return c.Handler(h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, model.ErrorResponse{Error: detail})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draft.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, draft.ErrEmptySymbol), errors.Is(err, draft.ErrOutOfBounds):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request body: "+err.Error())
		return false
	}
	return true
}

// intVar reads a numeric path variable. The routes only match digits, so the
// only failure left is overflow.
func intVar(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad %s index", name))
		return 0, false
	}
	return n, true
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, op draft.Op) {
	d, err := s.svc.Apply(r.Context(), mux.Vars(r)["id"], op)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input model.CreateDraftRequestBody
	if !decode(w, r, &input) {
		return
	}

	var d model.Draft
	var err error
	if input.Sheet != "" {
		d, err = s.svc.Import(r.Context(), input.Title, sheet.Parse(input.Sheet))
	} else {
		d, err = s.svc.Create(r.Context(), input.Title, input.Lyrics)
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Save(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var input model.InsertChordRequestBody
	if !decode(w, r, &input) {
		return
	}
	s.apply(w, r, draft.InsertOp{Line: input.Line, Char: input.Char, Symbol: chord.Normalize(input.Symbol)})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	line, ok := intVar(w, r, "line")
	if !ok {
		return
	}
	idx, ok := intVar(w, r, "chord")
	if !ok {
		return
	}
	var input model.EditChordRequestBody
	if !decode(w, r, &input) {
		return
	}
	s.apply(w, r, draft.EditOp{Line: line, Chord: idx, Symbol: chord.Normalize(input.Symbol)})
}

func (s *Server) handleDeleteChord(w http.ResponseWriter, r *http.Request) {
	line, ok := intVar(w, r, "line")
	if !ok {
		return
	}
	idx, ok := intVar(w, r, "chord")
	if !ok {
		return
	}
	s.apply(w, r, draft.DeleteOp{Line: line, Chord: idx})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var input model.MoveChordRequestBody
	if !decode(w, r, &input) {
		return
	}
	s.apply(w, r, draft.MoveOp{
		FromLine:  input.FromLine,
		FromChord: input.FromChord,
		ToLine:    input.ToLine,
		ToChar:    input.ToChar,
	})
}

func (s *Server) handleInsertAt(w http.ResponseWriter, r *http.Request) {
	var input model.InsertAtRequestBody
	if !decode(w, r, &input) {
		return
	}
	s.apply(w, r, draft.InsertAtOp{Grid: s.grid, X: input.X, Y: input.Y, Symbol: input.Symbol})
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var input model.DropChordRequestBody
	if !decode(w, r, &input) {
		return
	}
	s.apply(w, r, draft.DropOp{
		Grid:      s.grid,
		FromLine:  input.FromLine,
		FromChord: input.FromChord,
		X:         input.X,
		Y:         input.Y,
	})
}

func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	line, ok := intVar(w, r, "line")
	if !ok {
		return
	}
	var input model.SetTextRequestBody
	if !decode(w, r, &input) {
		return
	}
	s.apply(w, r, draft.SetTextOp{Line: line, Text: input.Text})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	line, ok := intVar(w, r, "line")
	if !ok {
		return
	}
	res, err := s.svc.Render(r.Context(), mux.Vars(r)["id"], line)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, sheet.Format(d.Document))
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	res := make([]model.UsageResponse, 0)
	for _, c := range chord.Usage(d.Document) {
		res = append(res, model.UsageResponse{Symbol: c.Symbol, Count: c.Count})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMidi(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	sm, err := midi.Export(d.Title, d.Document, s.ticksPerChar)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.ID+".mid"))
	if err := midi.Write(w, sm); err != nil {
		s.logger.Error("Midi export failed", zap.String("draft", d.ID), zap.Error(err))
	}
}
