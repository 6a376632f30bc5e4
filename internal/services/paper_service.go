package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paperlords/admin-service/internal/events"
	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/paperlords/admin-service/internal/validator"
)

type paperService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewPaperService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) PaperService {
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &paperService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *paperService) Create(ctx context.Context, req *CreatePaperRequest, adminID string) (*models.Paper, error) {
	s.logger.Info("Creating paper", "admin_id", adminID, "title", req.Title)

	paper := &models.Paper{
		Title:       req.Title,
		Type:        models.ExamBoard(req.Type),
		Subject:     req.Subject,
		Year:        req.Year,
		Season:      models.Season(req.Season),
		PaperType:   models.PaperKind(req.PaperType),
		DriveLink:   req.DriveLink,
		Description: req.Description,
		AddedByID:   adminID,
	}

	validator.NormalizePaper(paper)
	if errs := s.validator.GetBusinessValidator().ValidatePaper(paper); len(errs) > 0 {
		return nil, errs
	}

	now := s.now()
	paper.CreatedAt = now
	paper.UpdatedAt = now

	if err := s.repo.Paper().Create(ctx, paper); err != nil {
		return nil, fmt.Errorf("failed to create paper: %w", err)
	}

	s.logger.Info("Paper created successfully", "paper_id", paper.ID)

	created, err := s.repo.Paper().GetByID(ctx, paper.ID)
	if err != nil {
		s.logger.Warn("Failed to reload created paper", "paper_id", paper.ID, "error", err)
		created = paper
	}

	s.publish(ctx, events.PaperCreated, created, adminID)
	return created, nil
}

func (s *paperService) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	paper, err := s.repo.Paper().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}
	return paper, nil
}

func (s *paperService) Update(ctx context.Context, id string, req *UpdatePaperRequest, adminID string) (*models.Paper, error) {
	s.logger.Info("Updating paper", "paper_id", id, "admin_id", adminID)

	paper, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPaperUpdates(paper, req)
	validator.NormalizePaper(paper)
	if errs := s.validator.GetBusinessValidator().ValidatePaperFields(paper); len(errs) > 0 {
		return nil, errs
	}

	paper.UpdatedAt = s.now()

	if err := s.repo.Paper().Update(ctx, paper); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to update paper: %w", err)
	}

	updated, err := s.repo.Paper().GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to reload updated paper", "paper_id", id, "error", err)
		updated = paper
	}

	s.logger.Info("Paper updated successfully", "paper_id", id)
	s.publish(ctx, events.PaperUpdated, updated, adminID)
	return updated, nil
}

func (s *paperService) Delete(ctx context.Context, id string, adminID string) (*models.Paper, error) {
	s.logger.Info("Deleting paper", "paper_id", id, "admin_id", adminID)

	paper, err := s.repo.Paper().Delete(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to delete paper: %w", err)
	}

	s.logger.Info("Paper deleted successfully", "paper_id", id)
	s.publish(ctx, events.PaperDeleted, paper, adminID)
	return paper, nil
}

func (s *paperService) List(ctx context.Context, query repositories.PaperQuery) (*PaperListResponse, error) {
	query = normalizeQuery(query)

	papers, total, err := s.repo.Paper().List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	if papers == nil {
		papers = []*models.Paper{}
	}

	return &PaperListResponse{
		Papers:      papers,
		Total:       total,
		TotalPages:  repositories.TotalPages(total, query.Limit),
		CurrentPage: query.Page,
	}, nil
}

// Stats runs the four aggregates concurrently. Any failure fails the whole
// result; a partial snapshot is never returned or cached.
func (s *paperService) Stats(ctx context.Context) (*models.PaperStats, error) {
	papers := s.repo.Paper()
	if cached, ok := papers.GetCachedStats(ctx); ok {
		return cached, nil
	}

	var stats models.PaperStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := papers.Count(gctx)
		if err != nil {
			return err
		}
		stats.TotalPapers = total
		return nil
	})
	g.Go(func() error {
		byType, err := papers.CountByType(gctx)
		if err != nil {
			return err
		}
		stats.PapersByType = byType
		return nil
	})
	g.Go(func() error {
		byYear, err := papers.CountByYear(gctx, repositories.StatsYearLimit)
		if err != nil {
			return err
		}
		stats.PapersByYear = byYear
		return nil
	})
	g.Go(func() error {
		bySubject, err := papers.CountBySubject(gctx, repositories.StatsSubjectLimit)
		if err != nil {
			return err
		}
		stats.PapersBySubject = bySubject
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute paper statistics: %w", err)
	}

	if stats.PapersByType == nil {
		stats.PapersByType = []models.CountByKey{}
	}
	if stats.PapersByYear == nil {
		stats.PapersByYear = []models.CountByKey{}
	}
	if stats.PapersBySubject == nil {
		stats.PapersBySubject = []models.CountByKey{}
	}

	papers.SetCachedStats(ctx, &stats)
	return &stats, nil
}

// ===== HELPERS =====

func (s *paperService) publish(ctx context.Context, eventType string, paper *models.Paper, adminID string) {
	if err := s.publisher.Publish(ctx, events.NewPaperEvent(eventType, paper, adminID)); err != nil {
		s.logger.Error("Failed to publish paper event", "event_type", eventType, "paper_id", paper.ID, "error", err)
	}
}

func applyPaperUpdates(paper *models.Paper, req *UpdatePaperRequest) {
	if req.Title != nil {
		paper.Title = *req.Title
	}
	if req.Type != nil {
		paper.Type = models.ExamBoard(*req.Type)
	}
	if req.Subject != nil {
		paper.Subject = *req.Subject
	}
	if req.Year != nil {
		paper.Year = *req.Year
	}
	if req.Season != nil {
		paper.Season = models.Season(*req.Season)
	}
	if req.PaperType != nil {
		paper.PaperType = models.PaperKind(*req.PaperType)
	}
	if req.DriveLink != nil {
		paper.DriveLink = *req.DriveLink
	}
	if req.Description != nil {
		desc := *req.Description
		paper.Description = &desc
	}
}

// normalizeQuery fills defaults for a query that did not come through the
// HTTP layer
func normalizeQuery(q repositories.PaperQuery) repositories.PaperQuery {
	if q.Page < 1 {
		q.Page = repositories.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = repositories.DefaultLimit
	}
	if q.Limit > repositories.MaxLimit {
		q.Limit = repositories.MaxLimit
	}
	if _, ok := repositories.PaperSortFields[q.SortBy]; !ok {
		q.SortBy = repositories.DefaultSortBy
	}
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		q.SortOrder = repositories.DefaultSortOrder
	}
	return q
}
