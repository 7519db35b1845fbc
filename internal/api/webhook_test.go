//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/akoreshkov/retell-skill/internal/domain"
	"github.com/akoreshkov/retell-skill/internal/skill"
	"github.com/akoreshkov/retell-skill/internal/store"
	"github.com/go-chi/chi/v5"
)

type fakeRepo struct {
	mu          sync.Mutex
	sessions    map[string]*domain.Session
	updateCalls int
	failWith    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[string]*domain.Session)}
}

func (f *fakeRepo) UpdateSession(_ context.Context, sessionID string, fn store.UpdateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.failWith != nil {
		return f.failWith
	}

	var current *domain.Session
	if stored, ok := f.sessions[sessionID]; ok {
		copy := *stored
		current = &copy
	}

	updated, err := fn(current)
	if err != nil {
		return err
	}
	if updated != nil {
		copy := *updated
		f.sessions[sessionID] = &copy
	}
	return nil
}

func (f *fakeRepo) ResetSession(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		return false, nil
	}
	sess.Reset()
	return true, nil
}

func (f *fakeRepo) Ping(_ context.Context) error { return nil }
func (f *fakeRepo) Close() error                 { return nil }

func (f *fakeRepo) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func newTestRouter(repo store.Repository) http.Handler {
	r := chi.NewRouter()
	NewWebhookHandler(repo).RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) webhookResponse {
	t.Helper()
	var resp webhookResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandlerStoresThenCompares(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rr := postJSON(t, router, "/handler", map[string]string{
		"user_message": "The quick fox",
		"session_id":   "s1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Response.Text != skill.MsgOriginalSaved {
		t.Errorf("expected saved confirmation, got %q", resp.Response.Text)
	}
	if resp.Response.EndSession {
		t.Error("end_session must be false")
	}
	if len(resp.Buttons) != 0 {
		t.Errorf("expected no buttons on first message, got %d", len(resp.Buttons))
	}

	rr = postJSON(t, router, "/handler", map[string]string{
		"user_message": "The quick fox",
		"session_id":   "s1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	resp = decodeResponse(t, rr)
	if !strings.Contains(resp.Response.Text, "100%") {
		t.Errorf("expected 100%% similarity, got %q", resp.Response.Text)
	}
	if len(resp.Buttons) != 1 {
		t.Fatalf("expected exactly one button, got %d", len(resp.Buttons))
	}
	if resp.Buttons[0].Title != "Сбросить" {
		t.Errorf("unexpected button title %q", resp.Buttons[0].Title)
	}
}

func TestHandlerEmptyMessageTouchesNothing(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rr := postJSON(t, router, "/handler", map[string]string{
		"user_message": "   ",
		"session_id":   "s1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Response.Text != skill.MsgEnterText {
		t.Errorf("expected input prompt, got %q", resp.Response.Text)
	}
	if repo.updateCalls != 0 {
		t.Errorf("expected no store access, got %d calls", repo.updateCalls)
	}
	if repo.sessionCount() != 0 {
		t.Errorf("expected no session created, got %d", repo.sessionCount())
	}
}

func TestHandlerMissingSessionID(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rr := postJSON(t, router, "/handler", map[string]string{"user_message": "текст"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandlerMalformedBody(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	req := httptest.NewRequest(http.MethodPost, "/handler", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandlerStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("database gone")
	router := newTestRouter(repo)

	rr := postJSON(t, router, "/handler", map[string]string{
		"user_message": "текст",
		"session_id":   "s1",
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestResetUnknownSession(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rr := postJSON(t, router, "/reset", map[string]string{"session_id": "nope"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Response.Text != skill.MsgResetNotFound {
		t.Errorf("expected not-found message, got %q", resp.Response.Text)
	}
	if repo.sessionCount() != 0 {
		t.Errorf("reset must not create sessions, got %d", repo.sessionCount())
	}
}

func TestResetRestartsExercise(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	postJSON(t, router, "/handler", map[string]string{
		"user_message": "оригинальный текст",
		"session_id":   "s1",
	})

	rr := postJSON(t, router, "/reset", map[string]string{"session_id": "s1"})
	resp := decodeResponse(t, rr)
	if resp.Response.Text != skill.MsgResetDone {
		t.Errorf("expected reset confirmation, got %q", resp.Response.Text)
	}

	// The next message must be treated as first-time entry again.
	rr = postJSON(t, router, "/handler", map[string]string{
		"user_message": "новый текст",
		"session_id":   "s1",
	})
	resp = decodeResponse(t, rr)
	if resp.Response.Text != skill.MsgOriginalSaved {
		t.Errorf("expected first-time save after reset, got %q", resp.Response.Text)
	}
}

func TestHandlerPartialRetelling(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	postJSON(t, router, "/handler", map[string]string{
		"user_message": "Съешь ещё этих мягких французских булок",
		"session_id":   "s1",
	})

	rr := postJSON(t, router, "/handler", map[string]string{
		"user_message": "ешь еще мягких французских булок",
		"session_id":   "s1",
	})
	resp := decodeResponse(t, rr)

	text := resp.Response.Text
	if strings.Contains(text, ": 0%") || strings.Contains(text, ": 100%") {
		t.Errorf("expected score strictly between 0 and 100, got %q", text)
	}
	if !strings.Contains(text, "Съешь ещё этих мягких французских булок") {
		t.Errorf("response missing verbatim original: %q", text)
	}
	if !strings.Contains(text, "ешь еще мягких французских булок") {
		t.Errorf("response missing retold text: %q", text)
	}
}
