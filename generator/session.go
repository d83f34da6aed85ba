package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"policy_workbench/store"
)

// RecordStore is the part of store.Store a Session needs.
type RecordStore interface {
	Insert(ctx context.Context, e store.Entry) (int64, error)
	SetLock(ctx context.Context, id int64, locked bool) error
	Load(ctx context.Context, id int64) (*store.Record, error)
}

// Generator is the part of Agent a Session needs.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt Prompt, model string, maxOutputTokens int) (Result, string, error)
}

// SessionConfig 会话级的模型参数。
type SessionConfig struct {
	Model           string
	MaxOutputTokens int
	Logger          *zap.Logger
	Now             func() time.Time
}

// State is a copy of a session's active fields and display preferences.
type State struct {
	SessionID    string             `json:"session_id"`
	RecordID     int64              `json:"record_id,omitempty"`
	Payload      *GenerationRequest `json:"payload,omitempty"`
	Result       Result             `json:"result,omitempty"`
	Locked       bool               `json:"locked"`
	ViewMode     string             `json:"view_mode"`
	DecisiveMode bool               `json:"decisive_mode"`
	LastRaw      string             `json:"last_raw,omitempty"`
}

// Session 持有一次交互的当前记录（加载或新生成）。
// All operations are serialized on one mutex. Record identity 0 means none:
// the store assigns identities starting at 1.
type Session struct {
	ID string

	mu      sync.Mutex
	agent   Generator
	records RecordStore
	cfg     SessionConfig
	logger  *zap.Logger

	activeID int64
	payload  *GenerationRequest
	result   Result
	locked   bool

	viewMode     string
	decisiveMode bool
	lastRaw      string
}

// NewSession 创建 session，尚未加载任何记录。
func NewSession(id string, agent Generator, records RecordStore, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		ID:           id,
		agent:        agent,
		records:      records,
		cfg:          cfg,
		logger:       logger.With(zap.String("session", id)),
		viewMode:     ViewExternal,
		decisiveMode: true,
	}
}

// Reset clears the active record. The store is not touched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearActive()
	s.lastRaw = ""
}

// Close tears the session down; it must not be used afterwards.
func (s *Session) Close() {
	s.Reset()
	s.logger.Debug("session closed")
}

// Load makes the stored record id the active one. On any failure the state is unchanged.
func (s *Session) Load(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.records.Load(ctx, id)
	if err != nil {
		return err
	}
	payload, err := decodePayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("meeting %d: %w", id, err)
	}

	s.activeID = rec.ID
	s.payload = payload
	s.result = Result(rec.Result)
	s.locked = rec.Locked
	s.logger.Info("record loaded", zap.Int64("record", rec.ID), zap.Bool("locked", rec.Locked))
	return nil
}

// Generate validates req, refuses over a locked active record, calls the generator and
// inserts a new record on success. Regeneration goes through here too: it never updates.
func (s *Session) Generate(ctx context.Context, req GenerationRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.Normalize(s.cfg.Now())
	if err := req.Validate(); err != nil {
		return 0, err
	}
	if s.activeID != 0 && s.locked {
		return 0, fmt.Errorf("meeting %d: %w", s.activeID, ErrLocked)
	}

	result, raw, err := s.agent.GenerateJSON(ctx, BuildPrompt(req), s.cfg.Model, s.cfg.MaxOutputTokens)
	s.lastRaw = raw
	if err != nil {
		return 0, err
	}
	if result == nil {
		return 0, &ParseFailedError{Raw: raw}
	}

	id, err := s.records.Insert(ctx, store.Entry{
		Date:    req.MeetingDate,
		Time:    req.MeetingTime,
		Title:   req.MeetingTitle,
		Payload: req,
		Result:  result,
	})
	if err != nil {
		return 0, err
	}

	s.activeID = id
	s.payload = &req
	s.result = result
	s.locked = false
	s.logger.Info("record generated", zap.Int64("record", id))
	return id, nil
}

// ToggleLock flips the lock of the active record and persists it; on a store failure
// the in-memory flag is restored.
func (s *Session) ToggleLock(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID == 0 {
		return false, ErrNoActiveRecord
	}
	prev := s.locked
	s.locked = !prev
	if err := s.records.SetLock(ctx, s.activeID, s.locked); err != nil {
		s.locked = prev
		s.logger.Error("lock toggle rolled back", zap.Int64("record", s.activeID), zap.Error(err))
		return prev, err
	}
	s.logger.Info("lock toggled", zap.Int64("record", s.activeID), zap.Bool("locked", s.locked))
	return s.locked, nil
}

// Current re-reads the active record from the store.
func (s *Session) Current(ctx context.Context) (*store.Record, error) {
	s.mu.Lock()
	id := s.activeID
	s.mu.Unlock()
	if id == 0 {
		return nil, ErrNoActiveRecord
	}
	return s.records.Load(ctx, id)
}

func (s *Session) SetViewMode(mode string) error {
	if mode != ViewExternal && mode != ViewInternal {
		return fmt.Errorf("unknown view mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewMode = mode
	return nil
}

func (s *Session) SetDecisiveMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisiveMode = on
}

// DecisiveMode is the session's default for requests that do not set it.
func (s *Session) DecisiveMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decisiveMode
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		SessionID:    s.ID,
		RecordID:     s.activeID,
		Result:       s.result,
		Locked:       s.locked,
		ViewMode:     s.viewMode,
		DecisiveMode: s.decisiveMode,
		LastRaw:      s.lastRaw,
	}
	if s.payload != nil {
		p := *s.payload
		st.Payload = &p
	}
	return st
}

func (s *Session) clearActive() {
	s.activeID = 0
	s.payload = nil
	s.result = nil
	s.locked = false
}

func decodePayload(m map[string]any) (*GenerationRequest, error) {
	if m == nil {
		return nil, errors.New("record has no payload")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var req GenerationRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &req, nil
}
