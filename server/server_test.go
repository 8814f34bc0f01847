package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jsphweid/chordpad/config"
	"github.com/jsphweid/chordpad/draft"
	"github.com/jsphweid/chordpad/midi"
	"github.com/jsphweid/chordpad/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	repo := draft.NewDiskStore(filepath.Join(t.TempDir(), "drafts"))
	svc := draft.NewService(repo, draft.NewAutosaver(repo, time.Hour, nil), nil)
	return New(svc, cfg, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func decodeBody[A any](t *testing.T, resp *http.Response) A {
	t.Helper()
	var v A
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func create(t *testing.T, h http.Handler, lyrics string) model.Draft {
	resp := do(t, h, http.MethodPost, "/drafts", model.CreateDraftRequestBody{Title: "Song", Lyrics: lyrics})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[model.Draft](t, resp)
}

func TestHelloWorldOverHTTP(t *testing.T) {
	h := newTestServer(t, config.Default())
	d := create(t, h, "Hello\nWorld")

	resp := do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords", model.InsertChordRequestBody{Line: 0, Char: 0, Symbol: "C"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords", model.InsertChordRequestBody{Line: 0, Char: 5, Symbol: " G "})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, h, http.MethodGet, "/drafts/"+d.ID+"/lines/0/chords", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.RenderResponse{
		Line:   0,
		Text:   "Hello",
		Chords: []model.ChordAnnotation{{CharIndex: 0, Symbol: "C"}, {CharIndex: 5, Symbol: "G"}},
	}, decodeBody[model.RenderResponse](t, resp))

	resp = do(t, h, http.MethodPost, "/drafts/"+d.ID+"/move", model.MoveChordRequestBody{FromLine: 0, FromChord: 0, ToLine: 1, ToChar: 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[model.Draft](t, resp)
	assert.Equal(t, []model.ChordAnnotation{{CharIndex: 5, Symbol: "G"}}, got.Document.Lines[0].Chords)
	assert.Equal(t, []model.ChordAnnotation{{CharIndex: 0, Symbol: "C"}}, got.Document.Lines[1].Chords)
}

func TestPointerEndpoints(t *testing.T) {
	cfg := config.Default()
	cfg.Grid = config.GridConfig{CharWidth: 10, LineHeight: 40}
	h := newTestServer(t, cfg)
	d := create(t, h, "Hello\nWorld")

	resp := do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords/at", model.InsertAtRequestBody{X: 12, Y: 5, Symbol: "Em"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[model.Draft](t, resp)
	assert.Equal(t, []model.ChordAnnotation{{CharIndex: 1, Symbol: "Em"}}, got.Document.Lines[0].Chords)

	resp = do(t, h, http.MethodPost, "/drafts/"+d.ID+"/drop", model.DropChordRequestBody{FromLine: 0, FromChord: 0, X: 31, Y: 42})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeBody[model.Draft](t, resp)
	assert.Empty(t, got.Document.Lines[0].Chords)
	assert.Equal(t, []model.ChordAnnotation{{CharIndex: 3, Symbol: "Em"}}, got.Document.Lines[1].Chords)

	resp = do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords/at", model.InsertAtRequestBody{Symbol: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGrowthPastLimitsIsBadRequest(t *testing.T) {
	h := newTestServer(t, config.Default())
	d := create(t, h, "Hello")

	for _, req := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/chords", model.InsertChordRequestBody{Line: 5000000, Symbol: "C"}},
		{http.MethodPost, "/chords", model.InsertChordRequestBody{Line: 0, Char: 1 << 30, Symbol: "C"}},
		{http.MethodPut, "/lines/99999999", model.SetTextRequestBody{Text: "x"}},
		{http.MethodPost, "/chords/at", model.InsertAtRequestBody{X: 0, Y: 1e15, Symbol: "C"}},
		{http.MethodPost, "/move", model.MoveChordRequestBody{ToLine: 1 << 40}},
	} {
		resp := do(t, h, req.method, "/drafts/"+d.ID+req.path, req.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, req.path)
	}

	resp := do(t, h, http.MethodGet, "/drafts/"+d.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[model.Draft](t, resp).Document.Lines, 1)
}

func TestEditDeleteAndSetText(t *testing.T) {
	h := newTestServer(t, config.Default())
	d := create(t, h, "Hello")
	do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords", model.InsertChordRequestBody{Line: 0, Char: 1, Symbol: "C"})
	do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords", model.InsertChordRequestBody{Line: 0, Char: 3, Symbol: "F"})

	resp := do(t, h, http.MethodPut, "/drafts/"+d.ID+"/lines/0/chords/0", model.EditChordRequestBody{Symbol: "C7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, h, http.MethodDelete, "/drafts/"+d.ID+"/lines/0/chords/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, h, http.MethodPut, "/drafts/"+d.ID+"/lines/0", model.SetTextRequestBody{Text: "Hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[model.Draft](t, resp)
	assert.Equal(t, []model.Line{{Text: "Hi", Chords: []model.ChordAnnotation{{CharIndex: 1, Symbol: "C7"}}}}, got.Document.Lines)
}

func TestOutOfRangeIsNotAnError(t *testing.T) {
	h := newTestServer(t, config.Default())
	d := create(t, h, "Hello")

	resp := do(t, h, http.MethodDelete, "/drafts/"+d.ID+"/lines/4/chords/9", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, d.Document, decodeBody[model.Draft](t, resp).Document)

	resp = do(t, h, http.MethodGet, "/drafts/"+d.ID+"/lines/12/chords", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[model.RenderResponse](t, resp).Chords)
}

func TestBadRequests(t *testing.T) {
	h := newTestServer(t, config.Default())
	d := create(t, h, "Hello")

	resp := do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords", model.InsertChordRequestBody{Symbol: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, decodeBody[model.ErrorResponse](t, resp).Error)

	req := httptest.NewRequest(http.MethodPost, "/drafts/"+d.ID+"/chords", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp = do(t, h, http.MethodGet, "/drafts/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, h, http.MethodGet, "/drafts/not-a-uuid/sheet", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateFromSheetAndExports(t *testing.T) {
	h := newTestServer(t, config.Default())
	resp := do(t, h, http.MethodPost, "/drafts", model.CreateDraftRequestBody{
		Title: "Sheet",
		Sheet: "C     Am\nHello darkness\nC\nmy old friend",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[model.Draft](t, resp)
	assert.Equal(t, "Hello darkness\nmy old friend", d.Lyrics)

	resp = do(t, h, http.MethodGet, "/drafts/"+d.ID+"/sheet", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "C     Am\nHello darkness\nC\nmy old friend", string(text))

	resp = do(t, h, http.MethodGet, "/drafts/"+d.ID+"/usage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []model.UsageResponse{{Symbol: "C", Count: 2}, {Symbol: "Am", Count: 1}}, decodeBody[[]model.UsageResponse](t, resp))

	resp = do(t, h, http.MethodGet, "/drafts/"+d.ID+"/midi", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/midi", resp.Header.Get("Content-Type"))
	s, err := midi.Read(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, d.Document, midi.Import(s, config.Default().Midi.TicksPerChar))
}

func TestListSaveAndDelete(t *testing.T) {
	h := newTestServer(t, config.Default())
	d := create(t, h, "Hello")
	do(t, h, http.MethodPost, "/drafts/"+d.ID+"/chords", model.InsertChordRequestBody{Symbol: "C"})

	resp := do(t, h, http.MethodPost, "/drafts/"+d.ID+"/save", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, h, http.MethodGet, "/drafts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]model.DraftSummary](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].NumChords)

	resp = do(t, h, http.MethodDelete, "/drafts/"+d.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, h, http.MethodGet, "/drafts/"+d.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 2
	h := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/drafts", nil).StatusCode)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/drafts", nil).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/drafts", nil).StatusCode)
}

func TestCORS(t *testing.T) {
	cfg := config.Default()
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	h := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/drafts", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/drafts", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
