package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/keshon/datastore"
)

// LocalStore keeps the same path-shaped tree in a JSON datastore on disk, so
// the server runs standalone without a remote state root. The top path
// segment is the datastore key; deeper segments descend nested maps.
type LocalStore struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

func NewLocal(filePath string) (*LocalStore, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &LocalStore{ds: ds}, nil
}

// Close flushes the underlying datastore.
func (s *LocalStore) Close() error {
	return s.ds.Close()
}

func (s *LocalStore) Get(_ context.Context, path string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.node(path)
	if !ok || node == nil {
		return false, nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (s *LocalStore) Put(_ context.Context, path string, v any) error {
	plain, err := toPlain(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	segs := strings.Split(path, "/")
	if len(segs) == 1 {
		s.ds.Add(path, plain)
		return nil
	}

	root, _ := s.ds.Get(segs[0])
	rootMap, ok := root.(map[string]any)
	if !ok {
		rootMap = map[string]any{}
	}
	cur := rootMap
	for _, seg := range segs[1 : len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = plain
	s.ds.Add(segs[0], rootMap)
	return nil
}

func (s *LocalStore) Range(_ context.Context, path string, limit int) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.node(path)
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	m, ok := node.(map[string]any)
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		raw, err := json.Marshal(m[k])
		if err != nil {
			continue
		}
		out[k] = raw
	}
	return out, nil
}

// node walks the path segments. Caller holds the lock.
func (s *LocalStore) node(path string) (any, bool) {
	segs := strings.Split(path, "/")
	cur, ok := s.ds.Get(segs[0])
	if !ok {
		return nil, false
	}
	for _, seg := range segs[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// toPlain round-trips v through JSON so only plain maps/slices/numbers end up
// in the datastore, matching what loadFromFile would produce.
func toPlain(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
