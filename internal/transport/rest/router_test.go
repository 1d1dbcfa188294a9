package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"pairfocus/internal/coordinator"
	"pairfocus/internal/model"
	"pairfocus/internal/transport/ws"
)

func newTestRouter(t *testing.T) (http.Handler, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := coordinator.NewStore(clock)
	router := NewRouter(&Container{
		Store: store,
		WSHub: ws.NewHub(),
	})
	return router, clock
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func decodeSnapshot(t *testing.T, data []byte) *model.RoomSnapshot {
	t.Helper()
	var snap model.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, data)
	}
	return &snap
}

func TestSynchronizedSessionEndToEnd(t *testing.T) {
	router, clock := newTestRouter(t)

	// A joins a fresh room.
	code, body := doJSON(t, router, "POST", "/join_room",
		map[string]interface{}{"room_name": "alpha", "user_id": "u_a"})
	if code != http.StatusOK {
		t.Fatalf("join A: status %d (%s)", code, body)
	}
	snap := decodeSnapshot(t, body)
	if snap.Status != model.RoomStatusWaiting || len(snap.Users) != 1 {
		t.Fatalf("join A: unexpected snapshot %+v", snap)
	}

	// B joins.
	code, body = doJSON(t, router, "POST", "/join_room",
		map[string]interface{}{"room_name": "alpha", "user_id": "u_b"})
	if code != http.StatusOK {
		t.Fatalf("join B: status %d", code)
	}
	if snap = decodeSnapshot(t, body); len(snap.Users) != 2 {
		t.Fatalf("join B: expected 2 users, got %v", snap.Users)
	}

	// A third participant is turned away.
	code, body = doJSON(t, router, "POST", "/join_room",
		map[string]interface{}{"room_name": "alpha", "user_id": "u_c"})
	if code != http.StatusConflict {
		t.Fatalf("join C: expected 409, got %d (%s)", code, body)
	}

	// A starts with 1500s; room stays waiting.
	code, body = doJSON(t, router, "POST", "/start_timer",
		map[string]interface{}{"room_name": "alpha", "user_id": "u_a", "duration_seconds": 1500})
	if code != http.StatusOK {
		t.Fatalf("start A: status %d", code)
	}
	snap = decodeSnapshot(t, body)
	if snap.Status != model.RoomStatusWaiting {
		t.Fatalf("start A: expected waiting, got %s", snap.Status)
	}
	if !snap.TimersStarted["u_a"] || snap.TimersStarted["u_b"] {
		t.Fatalf("start A: unexpected readiness %v", snap.TimersStarted)
	}

	// B starts with 900s; A's duration wins and the room runs.
	code, body = doJSON(t, router, "POST", "/start_timer",
		map[string]interface{}{"room_name": "alpha", "user_id": "u_b", "duration_seconds": 900})
	if code != http.StatusOK {
		t.Fatalf("start B: status %d", code)
	}
	snap = decodeSnapshot(t, body)
	if snap.Status != model.RoomStatusRunning {
		t.Fatalf("start B: expected running, got %s", snap.Status)
	}
	if snap.DurationSeconds == nil || *snap.DurationSeconds != 1500 {
		t.Fatalf("duration must stay 1500, got %v", snap.DurationSeconds)
	}
	wantStamp := float64(clock.Now().UnixNano()) / 1e9
	if snap.StartedAt == nil || *snap.StartedAt != wantStamp {
		t.Fatalf("started_at = %v, want %v", snap.StartedAt, wantStamp)
	}

	// Both clients polling within the same second compute ~1500s remaining.
	code, body = doJSON(t, router, "GET", "/room_status?room_name=alpha", nil)
	if code != http.StatusOK {
		t.Fatalf("status: %d", code)
	}
	snap = decodeSnapshot(t, body)
	remaining, ok := snap.Remaining(clock.Now())
	if !ok || remaining != 1500*time.Second {
		t.Fatalf("remaining = %v, want 25m0s", remaining)
	}
}

func TestCancelPropagation(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, "POST", "/join_room", map[string]interface{}{"room_name": "beta", "user_id": "u_a"})
	doJSON(t, router, "POST", "/join_room", map[string]interface{}{"room_name": "beta", "user_id": "u_b"})
	doJSON(t, router, "POST", "/start_timer", map[string]interface{}{"room_name": "beta", "user_id": "u_a", "duration_seconds": 1500})
	doJSON(t, router, "POST", "/start_timer", map[string]interface{}{"room_name": "beta", "user_id": "u_b", "duration_seconds": 1500})

	code, body := doJSON(t, router, "POST", "/cancel_timer",
		map[string]interface{}{"room_name": "beta", "user_id": "u_a"})
	if code != http.StatusOK {
		t.Fatalf("cancel: status %d", code)
	}
	var msg map[string]string
	if err := json.Unmarshal(body, &msg); err != nil || msg["message"] == "" {
		t.Fatalf("cancel must return a message payload, got %s", body)
	}

	// B's next poll observes the cancellation with A's id.
	code, body = doJSON(t, router, "GET", "/room_status?room_name=beta", nil)
	if code != http.StatusOK {
		t.Fatalf("status after cancel: %d", code)
	}
	snap := decodeSnapshot(t, body)
	if snap.Status != model.RoomStatusCancelled || snap.CancelledBy != "u_a" {
		t.Fatalf("got status=%s cancelled_by=%q", snap.Status, snap.CancelledBy)
	}

	// Cancelled is terminal: a later poll still reports it.
	_, body = doJSON(t, router, "GET", "/room_status?room_name=beta", nil)
	if snap = decodeSnapshot(t, body); snap.Status != model.RoomStatusCancelled {
		t.Fatal("cancellation must be terminal")
	}
}

func TestStatusUnknownRoom(t *testing.T) {
	router, _ := newTestRouter(t)

	code, _ := doJSON(t, router, "GET", "/room_status?room_name=nowhere", nil)
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestSilentNoOps(t *testing.T) {
	router, _ := newTestRouter(t)

	// Start against a room nobody joined: 200 with an empty body object.
	code, body := doJSON(t, router, "POST", "/start_timer",
		map[string]interface{}{"room_name": "ghost", "user_id": "u_a", "duration_seconds": 60})
	if code != http.StatusOK {
		t.Fatalf("start on missing room: status %d", code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := payload["status"]; ok {
		t.Errorf("missing room must not fabricate a snapshot, got %s", body)
	}

	// Cancel against a missing room also succeeds quietly.
	code, _ = doJSON(t, router, "POST", "/cancel_timer",
		map[string]interface{}{"room_name": "ghost", "user_id": "u_a"})
	if code != http.StatusOK {
		t.Errorf("cancel on missing room: status %d", code)
	}
}

func TestRequestValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	code, _ := doJSON(t, router, "POST", "/join_room", map[string]interface{}{"room_name": "alpha"})
	if code != http.StatusBadRequest {
		t.Errorf("join without user_id: expected 400, got %d", code)
	}

	req := httptest.NewRequest("POST", "/join_room", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", rec.Code)
	}

	code, _ = doJSON(t, router, "GET", "/room_status", nil)
	if code != http.StatusBadRequest {
		t.Errorf("status without room_name: expected 400, got %d", code)
	}
}
