package library

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/tfstudio/internal/storage"
	"github.com/kalambet/tfstudio/internal/tsf"
)

// --- Mock store ---

type mockStore struct {
	mu   sync.Mutex
	data map[string]storage.Transformation

	getCalls int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]storage.Transformation)}
}

func (m *mockStore) SaveTransformation(t storage.Transformation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[t.ID] = t
	return nil
}

func (m *mockStore) UpdateTransformation(t storage.Transformation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[t.ID]
	if !ok {
		return storage.ErrNotFound
	}
	cur.Name, cur.TSF, cur.UpdatedAt = t.Name, t.TSF, t.UpdatedAt
	m.data[t.ID] = cur
	return nil
}

func (m *mockStore) GetTransformation(id string) (storage.Transformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	t, ok := m.data[id]
	if !ok {
		return storage.Transformation{}, storage.ErrNotFound
	}
	return t, nil
}

func (m *mockStore) ListTransformations(limit, offset int) ([]storage.Transformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]storage.Transformation, 0, len(m.data))
	for _, t := range m.data {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockStore) CountTransformations() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data), nil
}

func (m *mockStore) DeleteTransformation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *mockStore) gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager() (*Manager, *mockStore, *mockClock) {
	store := newMockStore()
	clock := &mockClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewManagerWithClock(store, clock, time.Minute), store, clock
}

// --- Tests ---

func TestCreate(t *testing.T) {
	m, store, _ := newTestManager()

	got, err := m.Create(validProfile(), "cli")
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	assert.Equal(t, "Cat", got.Name)
	assert.Equal(t, tsf.CurrentVersion, got.SourceVersion)
	assert.Equal(t, "cli", got.Source)
	assert.Equal(t, tsf.Encode(validProfile()), got.TSF)

	rec, ok := store.data[got.ID]
	require.True(t, ok)
	assert.Equal(t, got.TSF, rec.TSF)

	if diff := cmp.Diff(validProfile(), got.Profile, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_Invalid(t *testing.T) {
	m, store, _ := newTestManager()

	p := validProfile()
	p.TargetName = "x"
	_, err := m.Create(p, "cli")
	require.ErrorIs(t, err, ErrNameTooShort)
	assert.Empty(t, store.data)
}

func TestImport_Legacy(t *testing.T) {
	m, _, _ := newTestManager()

	legacy := "1;Cat;https://example.com/cat.png;5;20;Px;Sx;bio;1;Meow|30;0;;0;;0;;0;;0;"
	got, err := m.Import(legacy, "import")
	require.NoError(t, err)
	assert.Equal(t, 1, got.SourceVersion)
	assert.Equal(t, "import", got.Source)
	assert.Equal(t, "2.0;%Cat;%https://example.com/cat.png;%5;%20;%bio;%Meow|%30;%;%;%;%;%", got.TSF)
	assert.True(t, got.Profile.Flags.Big)
	assert.True(t, got.Profile.Flags.Hush)
	assert.Nil(t, got.Profile.Proxy, "stored text is version 2")
}

func TestImport_Invalid(t *testing.T) {
	m, store, _ := newTestManager()

	_, err := m.Import("3.0;%Cat", "import")
	require.ErrorIs(t, err, ErrInvalidTSF)
	require.ErrorIs(t, err, tsf.ErrUnrecognizedVersion)
	assert.Empty(t, store.data)
}

func TestGet_NotFound(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCacheTTL(t *testing.T) {
	m, store, clock := newTestManager()

	created, err := m.Create(validProfile(), "api")
	require.NoError(t, err)

	_, err = m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.gets(), "fresh create should be served from cache")

	clock.Advance(2 * time.Minute)
	_, err = m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets())

	_, err = m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets())
}

func TestGet_ReturnsCopy(t *testing.T) {
	m, _, _ := newTestManager()

	created, err := m.Create(validProfile(), "api")
	require.NoError(t, err)

	first, err := m.Get(created.ID)
	require.NoError(t, err)
	first.Profile.Prefixes[0].Content = "changed"

	second, err := m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meow", second.Profile.Prefixes[0].Content)
}

func TestUpdate(t *testing.T) {
	m, _, clock := newTestManager()

	created, err := m.Create(validProfile(), "api")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	p := created.Profile
	p.TargetName = "Dog"
	p.Flags.Backwards = true
	updated, err := m.Update(created.ID, p)
	require.NoError(t, err)
	assert.Equal(t, "Dog", updated.Name)
	assert.True(t, updated.Profile.Flags.Backwards)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dog", got.Profile.TargetName)
}

func TestUpdate_NotFound(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.Update("missing", validProfile())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	m, _, _ := newTestManager()

	created, err := m.Create(validProfile(), "api")
	require.NoError(t, err)
	require.NoError(t, m.Delete(created.ID))

	_, err = m.Get(created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, m.Delete(created.ID), ErrNotFound)
}

func TestList_SkipsUnreadable(t *testing.T) {
	m, store, _ := newTestManager()

	for i := 0; i < 3; i++ {
		_, err := m.Create(validProfile(), "api")
		require.NoError(t, err)
	}
	store.data["zzz-broken"] = storage.Transformation{ID: "zzz-broken", Name: "broken", TSF: "garbage"}

	got, total, err := m.List(10, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, got, 3)
}

func TestExport(t *testing.T) {
	m, _, _ := newTestManager()

	created, err := m.Create(validProfile(), "api")
	require.NoError(t, err)

	name, text, err := m.Export(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cat.tsf", name)
	assert.Equal(t, created.TSF, text)
}

func TestConcurrentGet(t *testing.T) {
	m, _, _ := newTestManager()

	created, err := m.Create(validProfile(), "api")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Get(created.ID)
			if err != nil || got.Name != "Cat" {
				t.Errorf("Get = %+v, %v", got, err)
			}
		}()
	}
	wg.Wait()
}
