package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pairfocus/internal/model"
)

var (
	// ErrRoomFull mirrors the coordinator's capacity conflict (HTTP 409).
	ErrRoomFull = errors.New("room is full")
	// ErrRoomNotFound mirrors the coordinator's 404 on room_status.
	ErrRoomNotFound = errors.New("room not found")
)

// DefaultTimeout bounds every coordinator call so a stuck server cannot
// wedge the caller.
const DefaultTimeout = 10 * time.Second

// Client is a typed HTTP client for the four coordinator operations.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a coordinator client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: DefaultTimeout},
	}
}

type joinRequest struct {
	RoomName string `json:"room_name"`
	UserID   string `json:"user_id"`
}

type startRequest struct {
	RoomName        string `json:"room_name"`
	UserID          string `json:"user_id"`
	DurationSeconds int    `json:"duration_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// JoinRoom joins (or lazily creates) the named room.
func (c *Client) JoinRoom(roomName, userID string) (*model.RoomSnapshot, error) {
	return c.post("/join_room", joinRequest{RoomName: roomName, UserID: userID})
}

// StartTimer signals readiness with the locally chosen duration. The
// returned snapshot may be empty (Status == "") when the server no longer
// knows the room.
func (c *Client) StartTimer(roomName, userID string, durationSeconds int) (*model.RoomSnapshot, error) {
	return c.post("/start_timer", startRequest{
		RoomName:        roomName,
		UserID:          userID,
		DurationSeconds: durationSeconds,
	})
}

// CancelTimer asks the server to cancel the session. A missing room is a
// server-side no-op and still succeeds.
func (c *Client) CancelTimer(roomName, userID string) error {
	body, _ := json.Marshal(joinRequest{RoomName: roomName, UserID: userID})
	resp, err := c.httpc.Post(c.baseURL+"/cancel_timer", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return nil
}

// RoomStatus fetches a read-only snapshot of the room.
func (c *Client) RoomStatus(roomName string) (*model.RoomSnapshot, error) {
	u := c.baseURL + "/room_status?room_name=" + url.QueryEscape(roomName)
	resp, err := c.httpc.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRoomNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	var snap model.RoomSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (c *Client) post(path string, payload interface{}) (*model.RoomSnapshot, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrRoomFull
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	var snap model.RoomSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
