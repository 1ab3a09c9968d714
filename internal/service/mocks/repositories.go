package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/oktaamyid/oktaa-links/internal/geo"
	"github.com/oktaamyid/oktaa-links/internal/models"
	"github.com/oktaamyid/oktaa-links/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	nextID int64

	// ApplyVisitErr, when set, makes ApplyVisit fail
	ApplyVisitErr error
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	link.ID = m.nextID
	m.nextID++
	link.CreatedAt = time.Now()
	link.UpdatedAt = link.CreatedAt
	m.links[link.ShortCode] = link
	return nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) Update(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *models.Link
	var currentCode string
	for code, l := range m.links {
		if l.ID == link.ID {
			current, currentCode = l, code
			break
		}
	}
	if current == nil {
		return repository.ErrLinkNotFound
	}
	if other, exists := m.links[link.ShortCode]; exists && other.ID != link.ID {
		return repository.ErrCodeExists
	}

	link.UpdatedAt = time.Now()
	delete(m.links, currentCode)
	m.links[link.ShortCode] = link
	return nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[code]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, code)
	return nil
}

func (m *MockLinkRepository) CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	return exists && link.ID != excludeID, nil
}

func (m *MockLinkRepository) ListWithStats(ctx context.Context) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]models.Link, 0, len(m.links))
	for _, link := range m.links {
		links = append(links, *link)
	}
	return links, nil
}

func (m *MockLinkRepository) ApplyVisit(ctx context.Context, code string, visit models.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ApplyVisitErr != nil {
		return m.ApplyVisitErr
	}

	link, exists := m.links[code]
	if !exists {
		return repository.ErrLinkNotFound
	}

	increment(&link.DeviceStats, visit.DeviceCategory)
	increment(&link.BrowserStats, visit.BrowserName)
	increment(&link.GeoStats, visit.Location)
	increment(&link.RefererStats, visit.Referer)
	link.Clicks++
	return nil
}

// SetApplyVisitErr toggles the ApplyVisit failure while workers are running
func (m *MockLinkRepository) SetApplyVisitErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyVisitErr = err
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.nextID = 1
}

func increment(stats *map[string]int64, key string) {
	if *stats == nil {
		*stats = make(map[string]int64)
	}
	(*stats)[key]++
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link

	// DeleteErr, when set, makes Delete fail and keeps the entry cached
	DeleteErr error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, code string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[code] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.cache, code)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}

// MockGeoResolver implements geo.Resolver for testing
type MockGeoResolver struct {
	// Locations maps IP -> location returned by Lookup
	Locations map[string]geo.Location
	// Err, when set, makes every Lookup fail
	Err error
}

func (m *MockGeoResolver) Lookup(ip string) (geo.Location, error) {
	if m.Err != nil {
		return geo.Location{}, m.Err
	}
	return m.Locations[ip], nil
}

func (m *MockGeoResolver) Close() error {
	return nil
}
