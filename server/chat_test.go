package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
)

func postJSON(t *testing.T, s *Server, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChatHappyPath(t *testing.T) {
	t.Parallel()

	pipe := &fakePipe{reply: "พฤศจิกายนถึงกุมภาพันธ์อากาศดีที่สุดครับ"}
	s := newTestServer(t, testConfig(), pipe)

	rec := postJSON(t, s, "/chat", `{"message":"เที่ยวเชียงใหม่เดือนไหนดี","thread_id":"t-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Response != "พฤศจิกายนถึงกุมภาพันธ์อากาศดีที่สุดครับ" {
		t.Fatalf("unexpected response: %q", resp.Response)
	}
	if resp.ThreadID != "t-1" {
		t.Fatalf("unexpected thread id: %s", resp.ThreadID)
	}

	if pipe.lastThread != "t-1" {
		t.Fatalf("unexpected pipeline thread: %s", pipe.lastThread)
	}
	if pipe.lastText != "เที่ยวเชียงใหม่เดือนไหนดี" {
		t.Fatalf("unexpected pipeline text: %q", pipe.lastText)
	}
}

func TestChatGeneratesThreadID(t *testing.T) {
	t.Parallel()

	pipe := &fakePipe{reply: "ok"}
	s := newTestServer(t, testConfig(), pipe)

	rec := postJSON(t, s, "/chat", `{"message":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if _, err := uuid.Parse(resp.ThreadID); err != nil {
		t.Fatalf("thread id is not a uuid: %q", resp.ThreadID)
	}
	if pipe.lastThread != resp.ThreadID {
		t.Fatalf("pipeline thread %s does not match response %s", pipe.lastThread, resp.ThreadID)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	t.Parallel()

	pipe := &fakePipe{reply: "ok"}
	s := newTestServer(t, testConfig(), pipe)

	rec := postJSON(t, s, "/chat", `{"message":"   "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Message cannot be empty.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if pipe.calls != 0 {
		t.Fatalf("expected pipeline untouched, got %d calls", pipe.calls)
	}
}

func TestChatInvalidJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testConfig(), &fakePipe{reply: "ok"})

	rec := postJSON(t, s, "/chat", `{"message": `)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid request body.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestChatBodyTooLarge(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxBodyBytes = 50

	pipe := &fakePipe{reply: "ok"}
	s := newTestServer(t, cfg, pipe)

	big := `{"message":"` + strings.Repeat("x", 200) + `"}`
	rec := postJSON(t, s, "/chat", big)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Request body too large.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if pipe.calls != 0 {
		t.Fatalf("expected pipeline untouched, got %d calls", pipe.calls)
	}
}

func TestChatPipelineError(t *testing.T) {
	t.Parallel()

	pipe := &fakePipe{err: errors.New("graph exploded")}
	s := newTestServer(t, testConfig(), pipe)

	rec := postJSON(t, s, "/chat", `{"message":"hi","thread_id":"t-1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), internalErrorDetail) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "graph exploded") {
		t.Fatalf("internal error leaked to client: %s", rec.Body.String())
	}
}

func TestChatStreamDeliversEventsInOrder(t *testing.T) {
	t.Parallel()

	pipe := &fakePipe{events: []contractx.StreamEvent{
		{Kind: contractx.StreamEventFragment, Fragment: "ลอง"},
		{Kind: contractx.StreamEventFragment, Fragment: "ภูเก็ต"},
		{Kind: contractx.StreamEventDone, ThreadID: "t-9"},
	}}
	s := newTestServer(t, testConfig(), pipe)

	rec := postJSON(t, s, "/chat/stream", `{"message":"ไปทะเลไหนดี","thread_id":"t-9"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}

	body := rec.Body.String()
	first := strings.Index(body, `event: fragment`+"\n"+`data: {"text":"ลอง"}`)
	second := strings.Index(body, `event: fragment`+"\n"+`data: {"text":"ภูเก็ต"}`)
	done := strings.Index(body, `event: done`+"\n"+`data: {"thread_id":"t-9"}`)

	if first < 0 || second < 0 || done < 0 {
		t.Fatalf("missing events in body:\n%s", body)
	}
	if !(first < second && second < done) {
		t.Fatalf("events out of order:\n%s", body)
	}
}

func TestChatStreamSurfacesErrorEvent(t *testing.T) {
	t.Parallel()

	pipe := &fakePipe{streamErr: errors.New("guard down")}
	s := newTestServer(t, testConfig(), pipe)

	rec := postJSON(t, s, "/chat/stream", `{"message":"hi","thread_id":"t-1"}`)

	body := rec.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Fatalf("expected error event, got:\n%s", body)
	}
	if !strings.Contains(body, internalErrorDetail) {
		t.Fatalf("expected generic detail, got:\n%s", body)
	}
	if strings.Contains(body, "guard down") {
		t.Fatalf("internal error leaked to client:\n%s", body)
	}
}

func TestChatStreamEmptyMessage(t *testing.T) {
	t.Parallel()

	pipe := &fakePipe{}
	s := newTestServer(t, testConfig(), pipe)

	rec := postJSON(t, s, "/chat/stream", `{"message":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if pipe.calls != 0 {
		t.Fatalf("expected pipeline untouched, got %d calls", pipe.calls)
	}
}
