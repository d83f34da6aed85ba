package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"policy_workbench/store"
)

// scriptedLLM replays a fixed list of replies and records every prompt it saw.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []Prompt
}

func (s *scriptedLLM) Complete(_ context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, p)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("scriptedLLM: no reply left")
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// blockingLLM waits for cancellation.
type blockingLLM struct{}

func (blockingLLM) Complete(ctx context.Context, _ Prompt) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// memStore is an in-memory RecordStore that round-trips payloads through JSON the way
// store.Store does.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	rows       map[int64]*store.Record
	setLockErr error
	inserts    int
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]*store.Record{}}
}

func (m *memStore) Insert(_ context.Context, e store.Entry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, err := toMap(e.Payload)
	if err != nil {
		return 0, err
	}
	var result map[string]any
	if e.Result != nil {
		if result, err = toMap(e.Result); err != nil {
			return 0, err
		}
	}
	m.nextID++
	m.inserts++
	m.rows[m.nextID] = &store.Record{
		ID: m.nextID, Date: e.Date, Time: e.Time, Title: e.Title,
		Payload: payload, Result: result, Locked: e.Locked,
	}
	return m.nextID, nil
}

func (m *memStore) SetLock(_ context.Context, id int64, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setLockErr != nil {
		return m.setLockErr
	}
	rec, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("meeting %d: %w", id, store.ErrNotFound)
	}
	rec.Locked = locked
	return nil
}

func (m *memStore) Load(_ context.Context, id int64) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("meeting %d: %w", id, store.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	return out, dec.Decode(&out)
}

func validRequest() GenerationRequest {
	return GenerationRequest{
		MeetingTitle: "District office briefing",
		MeetingDate:  "2025-06-01",
		MeetingTime:  "10:30",
		Preset:       "Environment (air quality)",
		Package:      "A Marketing",
		Target:       "Citizens",
		Tone:         "friendly",
		VideoLength:  "20s",
		Depth:        DepthDeep,
		PolicyTitle:  "Clean air school zones",
		Question:     "How do we cut PM2.5 exposure near schools?",
		Keywords:     Keywords{"air", "schools"},
		DecisiveMode: true,
	}
}
