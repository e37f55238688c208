package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/storage"
	memstore "github.com/pantryplay/pantryplay/pkg/storage/memory"
)

func newTestMemory(t *testing.T, store storage.Store, opts ...Option) *Memory {
	t.Helper()
	if store == nil {
		store = memstore.New()
	}
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	m, err := New(context.Background(), store, opts...)
	require.NoError(t, err)
	return m
}

// countingStore records writes so tests can assert reads are pure. fail
// rejects every write; failSuffix rejects writes to matching keys only.
type countingStore struct {
	storage.Store
	mu         sync.Mutex
	puts       int
	fail       bool
	failSuffix string
}

func (c *countingStore) Put(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.puts++
	fail := c.fail || (c.failSuffix != "" && strings.HasSuffix(key, c.failSuffix))
	c.mu.Unlock()
	if fail {
		return &storage.StorageUnavailableError{Cause: errors.New("disk full")}
	}
	return c.Store.Put(ctx, key, value)
}

func TestNew_DefaultProfile(t *testing.T) {
	m := newTestMemory(t, nil)

	prefs := m.Preferences()
	assert.Equal(t, "intermediate", prefs["cooking_skill_level"])
	assert.Equal(t, []any{}, prefs["dietary_restrictions"])
	assert.Equal(t, Stats{}, m.Stats())
	assert.Empty(t, m.Achievements())
	assert.Equal(t, DefaultCapacity, m.Capacity())
	assert.Equal(t, "default", m.Namespace())
}

func TestMemory_CapEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, nil, WithCapacity(5))

	var ids []string
	for i := 0; i < 8; i++ {
		e, err := m.Store(ctx, KindPantrySnapshot, map[string]any{"n": i})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	entries, err := m.Retrieve(ctx, KindPantrySnapshot, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, ids[3], entries[0].ID, "oldest surviving entry")
	assert.Equal(t, ids[7], entries[4].ID, "newest entry last")
}

func TestMemory_Retrieve(t *testing.T) {
	ctx := context.Background()
	counting := &countingStore{Store: memstore.New()}
	m := newTestMemory(t, counting)

	empty, err := m.Retrieve(ctx, KindRecipeHistory, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 0; i < 4; i++ {
		_, err := m.Store(ctx, KindInteraction, map[string]any{"input": fmt.Sprintf("msg %d", i)})
		require.NoError(t, err)
	}

	counting.mu.Lock()
	writes := counting.puts
	counting.mu.Unlock()

	last2, err := m.Retrieve(ctx, KindInteraction, 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	var content struct{ Input string }
	require.NoError(t, last2[1].Decode(&content))
	assert.Equal(t, "msg 3", content.Input)

	again, err := m.Retrieve(ctx, KindInteraction, 2)
	require.NoError(t, err)
	assert.Equal(t, last2, again)

	counting.mu.Lock()
	assert.Equal(t, writes, counting.puts, "Retrieve must not write")
	counting.mu.Unlock()

	_, err = m.Retrieve(ctx, "bogus", 1)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestMemory_StoreRejectsBadInput(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	_, err := m.Store(ctx, "bogus", map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = m.Store(ctx, KindRecipeHistory, nil)
	assert.ErrorIs(t, err, ErrNilContent)

	_, err = m.Store(ctx, KindRecipeHistory, map[string]any{"bad": make(chan int)})
	var se *storage.SerializationError
	assert.ErrorAs(t, err, &se)
}

func TestMemory_StatsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, nil)

	steps := []struct {
		kind    Kind
		content map[string]any
	}{
		{KindRecipeHistory, map[string]any{"name": "Pasta"}},
		{KindWasteTracking, map[string]any{"waste_reduced": 0.5, "money_saved": 3.0}},
		{KindWasteTracking, map[string]any{"waste_reduced": -2.0, "money_saved": -10.0}},
		{KindPantrySnapshot, map[string]any{"items": []string{"rice"}}},
		{KindAchievement, map[string]any{"name": "Zero Waste Week", "challenge": "zero_waste"}},
		{KindAchievement, map[string]any{"name": "First Recipe"}},
		{KindRecipeHistory, map[string]any{"name": "Soup"}},
	}

	prev := m.Stats()
	for _, step := range steps {
		_, err := m.Store(ctx, step.kind, step.content)
		require.NoError(t, err)

		cur := m.Stats()
		assert.GreaterOrEqual(t, cur.RecipesCooked, prev.RecipesCooked)
		assert.GreaterOrEqual(t, cur.WasteReducedKg, prev.WasteReducedKg)
		assert.GreaterOrEqual(t, cur.MoneySaved, prev.MoneySaved)
		assert.GreaterOrEqual(t, cur.ChallengesCompleted, prev.ChallengesCompleted)
		prev = cur
	}

	assert.Equal(t, Stats{
		RecipesCooked:       2,
		WasteReducedKg:      0.5,
		MoneySaved:          3.0,
		ChallengesCompleted: 1,
	}, m.Stats())

	achievements := m.Achievements()
	require.Len(t, achievements, 2)
	assert.Equal(t, "Zero Waste Week", achievements[0].Name)
	assert.Equal(t, "zero_waste", achievements[0].Challenge)
	assert.False(t, achievements[0].EarnedAt.IsZero())
	assert.Empty(t, achievements[1].Challenge)
}

func TestMemory_PreferencesShallowMerge(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, nil)

	_, err := m.Store(ctx, KindUserPreference, map[string]any{
		"dietary_restrictions": []string{"vegetarian"},
		"spice_tolerance":      "high",
	})
	require.NoError(t, err)

	prefs := m.Preferences()
	assert.Equal(t, []any{"vegetarian"}, prefs["dietary_restrictions"])
	assert.Equal(t, "high", prefs["spice_tolerance"])
	assert.Equal(t, "intermediate", prefs["cooking_skill_level"], "untouched keys survive")

	prefs["spice_tolerance"] = "mutated"
	assert.Equal(t, "high", m.Preferences()["spice_tolerance"], "Preferences returns a copy")
}

func TestMemory_ProfileSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	m := newTestMemory(t, store, WithNamespace("alice"))
	_, err := m.Store(ctx, KindRecipeHistory, map[string]any{"name": "Pasta"})
	require.NoError(t, err)
	_, err = m.Store(ctx, KindUserPreference, map[string]any{"cooking_skill_level": "advanced"})
	require.NoError(t, err)

	reloaded := newTestMemory(t, store, WithNamespace("alice"))
	assert.Equal(t, 1, reloaded.Stats().RecipesCooked)
	assert.Equal(t, "advanced", reloaded.Preferences()["cooking_skill_level"])
	assert.Contains(t, reloaded.Preferences(), "favorite_cuisines", "defaults fill missing keys")

	other := newTestMemory(t, store, WithNamespace("bob"))
	assert.Equal(t, 0, other.Stats().RecipesCooked, "namespaces are isolated")
}

func TestMemory_StoreFailureLeavesProfileUnchanged(t *testing.T) {
	ctx := context.Background()
	counting := &countingStore{Store: memstore.New()}
	m := newTestMemory(t, counting)

	counting.fail = true
	_, err := m.Store(ctx, KindRecipeHistory, map[string]any{"name": "Pasta"})

	var unavailable *storage.StorageUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 0, m.Stats().RecipesCooked)
}

func TestMemory_RejectedContentHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	counting := &countingStore{Store: memstore.New()}
	m := newTestMemory(t, counting)

	counting.mu.Lock()
	before := counting.puts
	counting.mu.Unlock()

	_, err := m.Store(ctx, KindUserPreference, []string{"vegan"})
	var se *storage.SerializationError
	require.ErrorAs(t, err, &se)

	entries, err := m.Retrieve(ctx, KindUserPreference, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected content must not reach the bucket")
	assert.Equal(t, DefaultPreferences(), m.Preferences())

	counting.mu.Lock()
	assert.Equal(t, before, counting.puts, "nothing written")
	counting.mu.Unlock()
}

func TestMemory_ProfileWriteFailureRollsBackEntry(t *testing.T) {
	ctx := context.Background()
	counting := &countingStore{Store: memstore.New()}
	m := newTestMemory(t, counting)

	_, err := m.Store(ctx, KindRecipeHistory, map[string]any{"name": "Soup"})
	require.NoError(t, err)

	counting.mu.Lock()
	counting.failSuffix = ":profile"
	counting.mu.Unlock()

	_, err = m.Store(ctx, KindRecipeHistory, map[string]any{"name": "Pasta"})
	var unavailable *storage.StorageUnavailableError
	require.ErrorAs(t, err, &unavailable)

	entries, err := m.Retrieve(ctx, KindRecipeHistory, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the earlier entry survives, the failed one is gone")
	assert.Contains(t, string(entries[0].Content), "Soup")
	assert.Equal(t, 1, m.Stats().RecipesCooked)

	_, err = m.Store(ctx, KindPantrySnapshot, map[string]any{"items": []string{"rice"}})
	require.Error(t, err)
	snapshots, err := m.Retrieve(ctx, KindPantrySnapshot, 0)
	require.NoError(t, err)
	assert.Empty(t, snapshots, "a first entry is removed again")

	counting.mu.Lock()
	counting.failSuffix = ""
	counting.mu.Unlock()

	_, err = m.Store(ctx, KindRecipeHistory, map[string]any{"name": "Pasta"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Stats().RecipesCooked)

	reloaded := newTestMemory(t, counting.Store)
	assert.Equal(t, 2, reloaded.Stats().RecipesCooked)
	entries, err = reloaded.Retrieve(ctx, KindRecipeHistory, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMemory_ProfileWriteFailureOnEmptyBucket(t *testing.T) {
	ctx := context.Background()
	counting := &countingStore{Store: memstore.New(), failSuffix: ":profile"}
	m := newTestMemory(t, counting)

	_, err := m.Store(ctx, KindRecipeHistory, map[string]any{"name": "Pasta"})
	require.Error(t, err)

	entries, err := m.Retrieve(ctx, KindRecipeHistory, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, m.Stats().RecipesCooked)
}

func TestMemory_ConcurrentStores(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, nil)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Store(ctx, KindRecipeHistory, map[string]any{"name": fmt.Sprintf("r%d", i)})
			assert.NoError(t, err)
			_ = m.Stats()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, writers, m.Stats().RecipesCooked)
	entries, err := m.Retrieve(ctx, KindRecipeHistory, 0)
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestMemory_PantryHistory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-10 * 24 * time.Hour)
	m := newTestMemory(t, nil, WithClock(func() time.Time { return clock }))

	_, err := m.Store(ctx, KindPantrySnapshot, map[string]any{"items": []string{"old"}})
	require.NoError(t, err)
	clock = now.Add(-2 * 24 * time.Hour)
	_, err = m.Store(ctx, KindPantrySnapshot, map[string]any{"items": []string{"recent"}})
	require.NoError(t, err)
	clock = now

	history, err := m.PantryHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, string(history[0].Content), "recent")
}
