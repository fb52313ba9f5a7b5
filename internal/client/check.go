package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type checkRoomResponse struct {
	Exists bool `json:"exists"`
}

// CheckRoom asks the server whether a room id is live before joining it.
func CheckRoom(ctx context.Context, hc *http.Client, baseURL, id string) (bool, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false, fmt.Errorf("check room: %w", err)
	}
	u.Path = "/check_room"
	u.RawQuery = url.Values{"id": {id}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("check room: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return false, fmt.Errorf("check room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("check room: unexpected status %d", resp.StatusCode)
	}
	var body checkRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("check room: %w", err)
	}
	return body.Exists, nil
}
