package postgres

import (
	"strings"

	"github.com/paperlords/admin-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common query building operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyPaperFilters applies the exact-match filters present on the query
func (h *SharedHelpers) ApplyPaperFilters(query *gorm.DB, q repositories.PaperQuery) *gorm.DB {
	if q.Type != nil {
		query = query.Where("type = ?", *q.Type)
	}
	if q.Subject != nil {
		query = query.Where("subject = ?", *q.Subject)
	}
	if q.Year != nil {
		query = query.Where("year = ?", *q.Year)
	}
	if q.Season != nil {
		query = query.Where("season = ?", *q.Season)
	}
	if q.PaperType != nil {
		query = query.Where("paper_type = ?", *q.PaperType)
	}
	return query
}

// ApplySort orders by a whitelisted column, with id as tiebreaker so pages
// stay stable across equal sort keys
func (h *SharedHelpers) ApplySort(query *gorm.DB, sortBy, sortOrder string) *gorm.DB {
	column, ok := repositories.PaperSortFields[sortBy]
	if !ok {
		column = repositories.PaperSortFields[repositories.DefaultSortBy]
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}

	return query.Order(column + " " + direction).Order("id " + direction)
}

// ApplyPaginationAndSort applies sorting then limit/offset
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	query = h.ApplySort(query, sortBy, sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// preloadAddedBy resolves the creator reference to id and username only
func preloadAddedBy(query *gorm.DB) *gorm.DB {
	return query.Preload("AddedBy", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username")
	})
}
