package statestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPStore is the Firebase-RTDB-shaped remote backend: GET/PUT on
// {root}/{path}.json, absent nodes read as the literal "null".
type HTTPStore struct {
	root   string
	client *http.Client
}

func NewHTTP(root string) *HTTPStore {
	return &HTTPStore{
		root:   strings.TrimRight(root, "/"),
		client: &http.Client{Timeout: 8 * time.Second},
	}
}

func (s *HTTPStore) Get(ctx context.Context, path string, out any) (bool, error) {
	body, err := s.get(ctx, s.root+"/"+path+".json")
	if err != nil {
		return false, err
	}
	if isNull(body) {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (s *HTTPStore) Put(ctx context.Context, path string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.root+"/"+path+".json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("put %s: status=%d", path, resp.StatusCode)
	}
	return nil
}

func (s *HTTPStore) Range(ctx context.Context, path string, limit int) (map[string]json.RawMessage, error) {
	q := url.Values{}
	q.Set("orderBy", `"$key"`)
	q.Set("limitToLast", strconv.Itoa(limit))
	body, err := s.get(ctx, s.root+"/"+path+".json?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if isNull(body) {
		return map[string]json.RawMessage{}, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s range: %w", path, err)
	}
	return out, nil
}

func (s *HTTPStore) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get: status=%d body=%s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

func isNull(body []byte) bool {
	return len(bytes.TrimSpace(body)) == 0 || string(bytes.TrimSpace(body)) == "null"
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
