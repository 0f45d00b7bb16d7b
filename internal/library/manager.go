package library

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/tfstudio/internal/storage"
	"github.com/kalambet/tfstudio/internal/tsf"
)

// ErrNotFound is returned when a transformation does not exist.
var ErrNotFound = storage.ErrNotFound

// TransformationStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type TransformationStore interface {
	SaveTransformation(t storage.Transformation) error
	UpdateTransformation(t storage.Transformation) error
	GetTransformation(id string) (storage.Transformation, error)
	ListTransformations(limit, offset int) ([]storage.Transformation, error)
	CountTransformations() (int, error)
	DeleteTransformation(id string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultCacheTTL is how long a decoded transformation stays cached.
const DefaultCacheTTL = 60 * time.Second

// Transformation is a saved transformation with its decoded profile.
type Transformation struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	TSF           string      `json:"tsf"`
	SourceVersion int         `json:"source_version"`
	Source        string      `json:"source"`
	Profile       tsf.Profile `json:"profile"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (t Transformation) clone() Transformation {
	t.Profile = t.Profile.Clone()
	return t
}

type cacheEntry struct {
	t  Transformation
	at time.Time
}

// Manager provides cached, decoded access to the transformation library.
type Manager struct {
	store  TransformationStore
	clock  Clock
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewManager creates a Manager whose decoded transformations stay cached
// for ttl.
func NewManager(store TransformationStore, ttl time.Duration) *Manager {
	return NewManagerWithClock(store, realClock{}, ttl)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store TransformationStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		ttl:    ttl,
		logger: slog.Default().With("component", "library"),
		cache:  make(map[string]cacheEntry),
	}
}

// Create normalizes p, encodes it and stores it as a new transformation.
func (m *Manager) Create(p tsf.Profile, source string) (Transformation, error) {
	p, err := Normalize(p)
	if err != nil {
		return Transformation{}, err
	}
	now := m.clock.Now().UTC().Truncate(time.Second)
	rec := storage.Transformation{
		ID:            uuid.NewString(),
		Name:          p.TargetName,
		TSF:           tsf.Encode(p),
		SourceVersion: tsf.CurrentVersion,
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.store.SaveTransformation(rec); err != nil {
		return Transformation{}, fmt.Errorf("saving transformation: %w", err)
	}
	m.logger.Debug("transformation created", "id", rec.ID, "name", rec.Name, "source", source)
	return m.remember(rec)
}

// Import stores a TSF text of any supported version. The text is kept in the
// current format; the version it was written in is recorded.
func (m *Manager) Import(text, source string) (Transformation, error) {
	p, err := tsf.Parse(text)
	if err != nil {
		return Transformation{}, fmt.Errorf("%w: %w", ErrInvalidTSF, err)
	}
	h := tsf.Sniff(text)
	now := m.clock.Now().UTC().Truncate(time.Second)
	rec := storage.Transformation{
		ID:            uuid.NewString(),
		Name:          p.TargetName,
		TSF:           tsf.Encode(p),
		SourceVersion: h.Version,
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.store.SaveTransformation(rec); err != nil {
		return Transformation{}, fmt.Errorf("saving transformation: %w", err)
	}
	if h.Version != tsf.CurrentVersion {
		m.logger.Info("imported legacy transformation", "id", rec.ID, "version", h.Version, "separator", h.Separator)
	}
	return m.remember(rec)
}

// Get returns the transformation with the given ID, from cache when fresh.
func (m *Manager) Get(id string) (Transformation, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if e, ok := m.cache[id]; ok && m.fresh(e) {
		t := e.t.clone()
		m.mu.RUnlock()
		return t, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cache[id]; ok && m.fresh(e) {
		return e.t.clone(), nil
	}

	rec, err := m.store.GetTransformation(id)
	if err != nil {
		return Transformation{}, fmt.Errorf("loading transformation %s: %w", id, err)
	}
	t, err := decodeRecord(rec)
	if err != nil {
		return Transformation{}, err
	}
	m.cache[id] = cacheEntry{t: t, at: m.clock.Now()}
	return t.clone(), nil
}

// Update replaces the profile of an existing transformation.
func (m *Manager) Update(id string, p tsf.Profile) (Transformation, error) {
	p, err := Normalize(p)
	if err != nil {
		return Transformation{}, err
	}
	current, err := m.store.GetTransformation(id)
	if err != nil {
		return Transformation{}, fmt.Errorf("loading transformation %s: %w", id, err)
	}
	current.Name = p.TargetName
	current.TSF = tsf.Encode(p)
	current.UpdatedAt = m.clock.Now().UTC().Truncate(time.Second)

	m.mu.Lock()
	delete(m.cache, id)
	m.mu.Unlock()

	if err := m.store.UpdateTransformation(current); err != nil {
		return Transformation{}, fmt.Errorf("updating transformation %s: %w", id, err)
	}
	return m.remember(current)
}

// Delete removes a transformation.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	delete(m.cache, id)
	m.mu.Unlock()

	if err := m.store.DeleteTransformation(id); err != nil {
		return fmt.Errorf("deleting transformation %s: %w", id, err)
	}
	return nil
}

// List returns a page of transformations, most recently updated first, and
// the total count. Records whose text no longer decodes are skipped.
func (m *Manager) List(limit, offset int) ([]Transformation, int, error) {
	recs, err := m.store.ListTransformations(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing transformations: %w", err)
	}
	total, err := m.store.CountTransformations()
	if err != nil {
		return nil, 0, fmt.Errorf("counting transformations: %w", err)
	}
	out := make([]Transformation, 0, len(recs))
	for _, rec := range recs {
		t, err := decodeRecord(rec)
		if err != nil {
			m.logger.Warn("skipping unreadable transformation", "id", rec.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, total, nil
}

// Export returns the download filename and the TSF text of a transformation.
func (m *Manager) Export(id string) (filename, text string, err error) {
	t, err := m.Get(id)
	if err != nil {
		return "", "", err
	}
	return Filename(t.Name), t.TSF, nil
}

func (m *Manager) fresh(e cacheEntry) bool {
	return m.clock.Now().Before(e.at.Add(m.ttl))
}

func (m *Manager) remember(rec storage.Transformation) (Transformation, error) {
	t, err := decodeRecord(rec)
	if err != nil {
		return Transformation{}, err
	}
	m.mu.Lock()
	m.cache[rec.ID] = cacheEntry{t: t, at: m.clock.Now()}
	m.mu.Unlock()
	return t.clone(), nil
}

func decodeRecord(rec storage.Transformation) (Transformation, error) {
	p, err := tsf.Parse(rec.TSF)
	if err != nil {
		return Transformation{}, fmt.Errorf("transformation %s: %w: %w", rec.ID, ErrInvalidTSF, err)
	}
	return Transformation{
		ID:            rec.ID,
		Name:          rec.Name,
		TSF:           rec.TSF,
		SourceVersion: rec.SourceVersion,
		Source:        rec.Source,
		Profile:       p,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}, nil
}

// IsValidation reports whether err is caused by profile or entry rules.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrNameTooShort) ||
		errors.Is(err, ErrInvalidImage) ||
		errors.Is(err, ErrNegativeStutter) ||
		errors.Is(err, ErrInvalidEntry)
}
