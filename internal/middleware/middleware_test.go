package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hbnb-api/internal/config"
	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"
	"hbnb-api/internal/storage/filestore"
)

func TestRateKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/states/", nil)
	r.RemoteAddr = "10.0.0.7:51234"

	if got, want := rateKey("rl", r), "rl:ip:10.0.0.7:route:GET /api/v1/states"; got != want {
		t.Fatalf("rateKey = %q, want %q", got, want)
	}

	r.RemoteAddr = ""
	if got, want := rateKey("rl", r), "rl:ip:unknown:route:GET /api/v1/states"; got != want {
		t.Fatalf("rateKey = %q, want %q", got, want)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	called := false
	h := RateLimit(config.RateLimitConfig{Enabled: false}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatalf("expected handler to run")
	}
}

func TestRespondError_EscapesMessage(t *testing.T) {
	msg := `bad "input" \ here`
	rec := httptest.NewRecorder()
	respondError(rec, msg, http.StatusTooManyRequests)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	if body["error"] != msg {
		t.Fatalf("error = %q, want %q", body["error"], msg)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("preflight should not reach the handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/states", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestSession_AttachesSession(t *testing.T) {
	engine := filestore.New(filestore.NewMemoryBlob())

	h := Session(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := storage.FromContext(r.Context())
		if !ok {
			t.Fatalf("no session in context")
		}
		sess.New(&models.State{Name: "Ohio"})
		if err := sess.Save(r.Context()); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	sess, _ := engine.Open(context.Background())
	defer sess.Close()
	if n, _ := sess.Count(context.Background(), models.KindState); n != 1 {
		t.Fatalf("expected committed state, count=%d", n)
	}
}

type brokenEngine struct{ storage.Engine }

func (brokenEngine) Open(context.Context) (storage.Session, error) {
	return nil, errors.New("pool exhausted")
}

func TestSession_OpenFailure(t *testing.T) {
	h := Session(brokenEngine{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] != "Internal server error" {
		t.Fatalf("unexpected body %v (%v)", body, err)
	}
}
