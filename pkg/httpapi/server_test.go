package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/wordsieve/pkg/config"
	"github.com/bastiangx/wordsieve/pkg/dictionary"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store"
	"github.com/bastiangx/wordsieve/pkg/store/memstore"
	"github.com/go-chi/chi/v5/middleware"
)

type envelope struct {
	OK      bool            `json:"ok"`
	Result  json.RawMessage `json:"result"`
	Count   int             `json:"count"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
}

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	if err := st.UpsertRanked(context.Background(), []store.RankedWord{{Word: "the", Rank: 1}}); err != nil {
		t.Fatal(err)
	}
	srv, err := New(st, dictionary.Table{{"child", "children"}}, config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return srv, st
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, env := do(t, srv.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !env.OK {
		t.Fatalf("health = %d %+v", rec.Code, env)
	}
	if id := rec.Header().Get(middleware.RequestIDHeader); len(id) != 26 {
		t.Errorf("expected a ULID request id, got %q", id)
	}
}

func TestAcquaintAndRevoke(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec, env := do(t, h, http.MethodPost, "/api/vocab/acquaint", AcquaintRequest{User: "ana", Words: []string{"river", "River", "the"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("acquaint = %d %+v", rec.Code, env)
	}
	var changed map[string]int
	json.Unmarshal(env.Result, &changed)
	if changed["changed"] != 2 {
		t.Errorf("changed = %v, expected 2", changed)
	}

	_, env = do(t, h, http.MethodGet, "/api/vocab?user=ana", nil)
	var states []sieve.VocabState
	if err := json.Unmarshal(env.Result, &states); err != nil {
		t.Fatal(err)
	}
	if env.Count != 2 {
		t.Errorf("expected 2 words for ana, got %+v", states)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/vocab/revoke", RevokeRequest{User: "ana", Word: "river"})
	if rec.Code != http.StatusOK {
		t.Errorf("revoke = %d", rec.Code)
	}
	rec, env = do(t, h, http.MethodPost, "/api/vocab/revoke", RevokeRequest{User: "ana", Word: "river"})
	if rec.Code != http.StatusNotFound || env.Error != "not_found" {
		t.Errorf("second revoke = %d %+v", rec.Code, env)
	}
}

func TestRequestErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	testCases := []struct {
		method      string
		path        string
		body        any
		code        int
		description string
	}{
		{http.MethodPost, "/api/vocab/acquaint", AcquaintRequest{User: "ana"}, http.StatusBadRequest, "no words"},
		{http.MethodPost, "/api/vocab/acquaint", AcquaintRequest{Words: []string{"x"}}, http.StatusBadRequest, "no user"},
		{http.MethodPost, "/api/vocab/acquaint", AcquaintRequest{User: "ana", Words: []string{strings.Repeat("a", 40)}}, http.StatusBadRequest, "word too long"},
		{http.MethodPost, "/api/sieve", SieveRequest{}, http.StatusBadRequest, "no text"},
		{http.MethodPost, "/api/sieve", SieveRequest{Text: "a", Segment: "soon"}, http.StatusBadRequest, "unknown segment"},
		{http.MethodPost, "/api/sieve", "not an object", http.StatusBadRequest, "bad body"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			rec, env := do(t, h, tc.method, tc.path, tc.body)
			if rec.Code != tc.code || env.OK {
				t.Errorf("got %d %+v, expected %d", rec.Code, env, tc.code)
			}
		})
	}
}

func TestSieve(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.Acquaint(context.Background(), "ana", "the"); err != nil {
		t.Fatal(err)
	}
	h := srv.Handler()

	body := SieveRequest{User: "ana", Text: "The children ran. The child ran home.", Segment: "target"}
	rec, env := do(t, h, http.MethodPost, "/api/sieve", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("sieve = %d %+v", rec.Code, env)
	}
	var result SieveResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatal(err)
	}
	freq := map[string]int{}
	for _, en := range result.Entries {
		freq[en.Word] = en.Frequency()
	}
	if freq["child"] != 2 || freq["ran"] != 2 {
		t.Errorf("target = %v", freq)
	}
	if _, ok := freq["the"]; ok {
		t.Error("acquainted words are not targets")
	}
	if result.WordCount != 7 || result.Sentences != 2 {
		t.Errorf("counts = %d words, %d sentences", result.WordCount, result.Sentences)
	}

	body.Segment = "common"
	_, env = do(t, h, http.MethodPost, "/api/sieve", body)
	json.Unmarshal(env.Result, &result)
	if result.Count != 1 || result.Entries[0].Word != "the" {
		t.Errorf("common = %+v", result.Entries)
	}
}

func TestStems(t *testing.T) {
	srv, _ := newTestServer(t)
	_, env := do(t, srv.Handler(), http.MethodGet, "/api/stems", nil)
	var table [][]string
	json.Unmarshal(env.Result, &table)
	if env.Count != 1 || table[0][0] != "child" {
		t.Errorf("stems = %v", table)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/sieve", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestMalformedTable(t *testing.T) {
	if _, err := New(memstore.New(), dictionary.Table{{"lonely"}}, nil); err == nil {
		t.Error("expected an error for a malformed table")
	}
}

func TestServeShutdown(t *testing.T) {
	srv, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
