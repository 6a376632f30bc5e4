package repositories

import (
	"github.com/paperlords/admin-service/internal/models"
)

// ===== PAPER QUERY =====

const (
	DefaultPage      = 1
	DefaultLimit     = 10
	MaxLimit         = 100
	DefaultSortBy    = "year"
	DefaultSortOrder = "desc"
)

// PaperSortFields maps the sortable API field names to their columns
var PaperSortFields = map[string]string{
	"title":     "title",
	"type":      "type",
	"subject":   "subject",
	"year":      "year",
	"season":    "season",
	"paperType": "paper_type",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// PaperQuery is the typed filter/sort/page request for the paper list.
// Nil filters are not applied.
type PaperQuery struct {
	Type      *models.ExamBoard `json:"type"`
	Subject   *string           `json:"subject"`
	Year      *int              `json:"year"`
	Season    *models.Season    `json:"season"`
	PaperType *models.PaperKind `json:"paperType"`
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
	SortBy    string            `json:"sortBy"`
	SortOrder string            `json:"sortOrder"`
}

// NewPaperQuery returns a query with the default paging and ordering
func NewPaperQuery() PaperQuery {
	return PaperQuery{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
	}
}

// Offset is the number of records skipped before the requested page
func (q PaperQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// TotalPages is ceil(total / limit)
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ===== STATS LIMITS =====

const (
	StatsYearLimit    = 5
	StatsSubjectLimit = 10
)
