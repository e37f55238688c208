package memory

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/storage"
)

// Sentinel errors for the memory system.
var (
	ErrInvalidKind = errors.New("memory: invalid entry kind")
	ErrNilContent  = errors.New("memory: content is required")
)

// DefaultCapacity is the default number of entries kept per kind.
const DefaultCapacity = 1000

// MetricsRecorder receives memory write outcomes.
type MetricsRecorder interface {
	RecordMemoryStore(kind string, success bool)
}

// Memory stores typed entries in capped per-kind buckets and maintains the
// user profile. Writes are serialized; reads may run concurrently.
type Memory struct {
	mu        sync.RWMutex
	store     storage.Store
	namespace string
	capacity  int
	log       logger.Logger
	metrics   MetricsRecorder
	now       func() time.Time
	entropy   *ulid.MonotonicEntropy
	profile   *Profile
}

// Option configures a Memory.
type Option func(*Memory)

// WithCapacity sets the per-kind entry cap.
func WithCapacity(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithNamespace isolates this memory's keys, one namespace per user.
func WithNamespace(ns string) Option {
	return func(m *Memory) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Memory) { m.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r MetricsRecorder) Option {
	return func(m *Memory) { m.metrics = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// New creates a Memory backed by store and loads the stored profile, or
// starts from the default profile when none exists.
func New(ctx context.Context, store storage.Store, opts ...Option) (*Memory, error) {
	if store == nil {
		return nil, errors.New("memory: store is required")
	}
	m := &Memory{
		store:     store,
		namespace: "default",
		capacity:  DefaultCapacity,
		log:       logger.Global(),
		now:       time.Now,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "memory", "namespace", m.namespace)

	profile := newProfile()
	err := storage.GetJSON(ctx, store, m.profileKey(), profile)
	switch {
	case storage.IsNotFound(err):
		m.log.DebugContext(ctx, "no stored profile, starting fresh")
	case err != nil:
		return nil, fmt.Errorf("memory: load profile: %w", err)
	}
	if profile.Preferences == nil {
		profile.Preferences = DefaultPreferences()
	}
	m.profile = profile
	return m, nil
}

func (m *Memory) profileKey() string { return m.namespace + ":profile" }

func (m *Memory) bucketKey(kind Kind) string {
	return m.namespace + ":entries:" + string(kind)
}

// Store appends content to the kind's bucket, evicting the oldest entries
// beyond the cap, then updates and persists the profile.
func (m *Memory) Store(ctx context.Context, kind Kind, content any) (*Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if content == nil {
		return nil, ErrNilContent
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, &storage.SerializationError{Operation: "marshal " + string(kind) + " entry", Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, err := m.storeLocked(ctx, kind, raw)
	if m.metrics != nil {
		m.metrics.RecordMemoryStore(string(kind), err == nil)
	}
	if err != nil {
		m.log.ErrorContext(ctx, "failed to store memory entry", "kind", kind, "error", err)
		return nil, err
	}
	m.log.DebugContext(ctx, "stored memory entry", "kind", kind, "id", entry.ID)
	return entry, nil
}

func (m *Memory) storeLocked(ctx context.Context, kind Kind, raw json.RawMessage) (*Entry, error) {
	now := m.now().UTC()
	entry := Entry{
		ID:        ulid.MustNew(ulid.Timestamp(now), m.entropy).String(),
		Kind:      kind,
		Timestamp: now,
		Content:   raw,
	}

	// Content the profile cannot absorb is rejected before anything is written.
	next := m.profile.clone()
	if err := next.apply(entry); err != nil {
		return nil, &storage.SerializationError{Operation: "apply " + string(kind) + " entry", Cause: err}
	}

	prev, err := m.loadBucket(ctx, kind)
	if err != nil {
		return nil, err
	}
	bucket := append(append(make([]Entry, 0, len(prev)+1), prev...), entry)
	if len(bucket) > m.capacity {
		bucket = bucket[len(bucket)-m.capacity:]
	}
	if err := storage.PutJSON(ctx, m.store, m.bucketKey(kind), bucket); err != nil {
		return nil, err
	}
	if err := storage.PutJSON(ctx, m.store, m.profileKey(), next); err != nil {
		m.restoreBucket(ctx, kind, prev)
		return nil, err
	}
	m.profile = next
	return &entry, nil
}

// restoreBucket puts a bucket back to its state before a failed store.
func (m *Memory) restoreBucket(ctx context.Context, kind Kind, prev []Entry) {
	var err error
	if prev == nil {
		err = m.store.Delete(ctx, m.bucketKey(kind))
	} else {
		err = storage.PutJSON(ctx, m.store, m.bucketKey(kind), prev)
	}
	if err != nil && !storage.IsNotFound(err) {
		m.log.ErrorContext(ctx, "failed to roll back memory entry", "kind", kind, "error", err)
	}
}

func (m *Memory) loadBucket(ctx context.Context, kind Kind) ([]Entry, error) {
	var bucket []Entry
	err := storage.GetJSON(ctx, m.store, m.bucketKey(kind), &bucket)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	return bucket, err
}

// Retrieve returns the most recent limit entries of kind, oldest first. A
// limit of zero or less returns the whole bucket.
func (m *Memory) Retrieve(ctx context.Context, kind Kind, limit int) ([]Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	m.mu.RLock()
	bucket, err := m.loadBucket(ctx, kind)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return tail(bucket, limit), nil
}

func tail(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// RecentRecipes returns the last limit recipe entries.
func (m *Memory) RecentRecipes(ctx context.Context, limit int) ([]Entry, error) {
	return m.Retrieve(ctx, KindRecipeHistory, limit)
}

// PantryHistory returns pantry snapshots taken within the last days days.
func (m *Memory) PantryHistory(ctx context.Context, days int) ([]Entry, error) {
	entries, err := m.Retrieve(ctx, KindPantrySnapshot, 0)
	if err != nil {
		return nil, err
	}
	now := m.now()
	out := entries[:0]
	for _, e := range entries {
		if withinDays(e.Timestamp, now, days) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Preferences returns a copy of the user's preferences.
func (m *Memory) Preferences() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneMap(m.profile.Preferences)
}

// Stats returns the user's counters.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile.Stats
}

// Achievements returns a copy of the earned achievements.
func (m *Memory) Achievements() []Achievement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Achievement{}, m.profile.Achievements...)
}

// Profile returns a copy of the whole profile.
func (m *Memory) Profile() Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.profile.clone()
}

// Capacity returns the per-kind cap.
func (m *Memory) Capacity() int { return m.capacity }

// Namespace returns the storage namespace.
func (m *Memory) Namespace() string { return m.namespace }

// Ping checks the backing store.
func (m *Memory) Ping(ctx context.Context) error { return m.store.Ping(ctx) }
