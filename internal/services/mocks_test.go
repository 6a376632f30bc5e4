package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository is an in-memory Repository for service tests
type MockRepository struct {
	papers *MockPaperRepository
	admins *MockAdminRepository
}

func NewMockRepository() *MockRepository {
	admins := &MockAdminRepository{byID: map[string]*models.Admin{}}
	return &MockRepository{
		papers: &MockPaperRepository{byID: map[string]*models.Paper{}, admins: admins},
		admins: admins,
	}
}

func (m *MockRepository) Paper() repositories.PaperRepository { return m.papers }
func (m *MockRepository) Admin() repositories.AdminRepository { return m.admins }
func (m *MockRepository) Ping(ctx context.Context) error      { return nil }
func (m *MockRepository) Close() error                        { return nil }

// MockRepositoryManager wraps a MockRepository
type MockRepositoryManager struct {
	repo      repositories.Repository
	healthErr error
	shutdown  bool
}

func (m *MockRepositoryManager) Initialize() error                      { return nil }
func (m *MockRepositoryManager) GetRepository() repositories.Repository { return m.repo }
func (m *MockRepositoryManager) HealthCheck(ctx context.Context) error  { return m.healthErr }
func (m *MockRepositoryManager) Shutdown(ctx context.Context) error     { m.shutdown = true; return nil }

// ===== PAPERS =====

type MockPaperRepository struct {
	mu     sync.Mutex
	byID   map[string]*models.Paper
	admins *MockAdminRepository

	stats     *models.PaperStats
	countErr  error
	statCalls int
}

func clonePaper(p *models.Paper) *models.Paper {
	c := *p
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	if p.AddedBy != nil {
		ref := *p.AddedBy
		c.AddedBy = &ref
	}
	return &c
}

func (m *MockPaperRepository) resolve(p *models.Paper) *models.Paper {
	c := clonePaper(p)
	if a, ok := m.admins.lookup(p.AddedByID); ok {
		c.AddedBy = &models.AdminRef{ID: a.ID, Username: a.Username}
	}
	return c
}

func (m *MockPaperRepository) Create(ctx context.Context, paper *models.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	m.byID[paper.ID] = clonePaper(paper)
	m.stats = nil
	return nil
}

func (m *MockPaperRepository) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cacheRoundTrip(m.resolve(p))
}

// cacheRoundTrip mirrors the store's cache-aside read: the record passes
// through JSON, so the creator id survives only via the resolved reference.
func cacheRoundTrip(p *models.Paper) (*models.Paper, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out models.Paper
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out.AddedBy != nil {
		out.AddedByID = out.AddedBy.ID
	}
	return &out, nil
}

func (m *MockAdminRepository) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

func (m *MockPaperRepository) Update(ctx context.Context, paper *models.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[paper.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	updated := clonePaper(paper)
	updated.AddedByID = existing.AddedByID
	updated.CreatedAt = existing.CreatedAt
	updated.AddedBy = nil
	m.byID[paper.ID] = updated
	m.stats = nil
	return nil
}

func (m *MockPaperRepository) Delete(ctx context.Context, id string) (*models.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	delete(m.byID, id)
	m.stats = nil
	return m.resolve(p), nil
}

func (m *MockPaperRepository) filtered(q repositories.PaperQuery) []*models.Paper {
	var out []*models.Paper
	for _, p := range m.byID {
		if q.Type != nil && p.Type != *q.Type {
			continue
		}
		if q.Subject != nil && p.Subject != *q.Subject {
			continue
		}
		if q.Year != nil && p.Year != *q.Year {
			continue
		}
		if q.Season != nil && p.Season != *q.Season {
			continue
		}
		if q.PaperType != nil && p.PaperType != *q.PaperType {
			continue
		}
		out = append(out, m.resolve(p))
	}

	desc := q.SortOrder != "asc"
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less, equal bool
		switch q.SortBy {
		case "title":
			less, equal = a.Title < b.Title, a.Title == b.Title
		case "subject":
			less, equal = a.Subject < b.Subject, a.Subject == b.Subject
		case "createdAt":
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		default:
			less, equal = a.Year < b.Year, a.Year == b.Year
		}
		if equal {
			less = a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

func (m *MockPaperRepository) List(ctx context.Context, q repositories.PaperQuery) ([]*models.Paper, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.filtered(q)
	total := int64(len(all))
	start := q.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *MockPaperRepository) ListAll(ctx context.Context, q repositories.PaperQuery) ([]*models.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filtered(q), nil
}

func (m *MockPaperRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statCalls++
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.byID)), nil
}

func (m *MockPaperRepository) countBy(key func(*models.Paper) interface{}) map[interface{}]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[interface{}]int64{}
	for _, p := range m.byID {
		counts[key(p)]++
	}
	return counts
}

func (m *MockPaperRepository) CountByType(ctx context.Context) ([]models.CountByKey, error) {
	var out []models.CountByKey
	for k, c := range m.countBy(func(p *models.Paper) interface{} { return string(p.Type) }) {
		out = append(out, models.CountByKey{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.(string) < out[j].Key.(string) })
	return out, nil
}

func (m *MockPaperRepository) CountByYear(ctx context.Context, limit int) ([]models.CountByKey, error) {
	var out []models.CountByKey
	for k, c := range m.countBy(func(p *models.Paper) interface{} { return p.Year }) {
		out = append(out, models.CountByKey{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.(int) > out[j].Key.(int) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaperRepository) CountBySubject(ctx context.Context, limit int) ([]models.CountByKey, error) {
	var out []models.CountByKey
	for k, c := range m.countBy(func(p *models.Paper) interface{} { return p.Subject }) {
		out = append(out, models.CountByKey{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Key.(string) < out[j].Key.(string)
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaperRepository) GetCachedStats(ctx context.Context) (*models.PaperStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stats == nil {
		return nil, false
	}
	s := *m.stats
	return &s, true
}

func (m *MockPaperRepository) SetCachedStats(ctx context.Context, stats *models.PaperStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *stats
	m.stats = &s
}

// ===== ADMINS =====

type MockAdminRepository struct {
	mu        sync.Mutex
	byID      map[string]*models.Admin
	createErr error
}

func (m *MockAdminRepository) lookup(id string) (*models.Admin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	return a, ok
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, a := range m.byID {
		if a.Username == admin.Username || a.Email == admin.Email {
			return errors.New(`ERROR: duplicate key value violates unique constraint "idx_admins_username"`)
		}
	}
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.Role == "" {
		admin.Role = models.RoleAdmin
	}
	c := *admin
	m.byID[admin.ID] = &c
	return nil
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	a, ok := m.lookup(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *MockAdminRepository) find(match func(*models.Admin) bool) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if match(a) {
			c := *a
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return m.find(func(a *models.Admin) bool { return a.Username == username })
}

func (m *MockAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return m.find(func(a *models.Admin) bool { return a.Email == email })
}

func (m *MockAdminRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := m.find(func(a *models.Admin) bool { return a.Username == username || a.Email == email })
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
