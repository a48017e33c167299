package service

import (
	"context"
	"fmt"

	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SubmissionService writes finished enrollments and serves them to admins.
// Stored submissions are never modified.
type SubmissionService struct {
	subs *repository.SubmissionRepo
	log  *zap.Logger
}

func NewSubmissionService(subs *repository.SubmissionRepo, log *zap.Logger) *SubmissionService {
	return &SubmissionService{subs: subs, log: log}
}

// Submit appends sub to the submission collection and returns its id.
func (s *SubmissionService) Submit(ctx context.Context, sub models.Submission) (string, error) {
	id, err := s.subs.Create(ctx, &sub)
	if err != nil {
		s.log.Error("submission: write failed", zap.String("nature", sub.EnrollmentNature), zap.Error(err))
		return "", fmt.Errorf("write submission: %w", err)
	}
	s.log.Info("submission: stored",
		zap.String("id", id),
		zap.String("nature", sub.EnrollmentNature),
		zap.Int("participants", len(sub.Participants)),
	)
	return id, nil
}

type SubmissionPage struct {
	Items []models.Submission `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// List returns submissions newest first. Page numbers start at 1.
func (s *SubmissionService) List(ctx context.Context, page, limit int) (*SubmissionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	items, total, err := s.subs.FindAll(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Submission{}
	}
	return &SubmissionPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	return s.subs.FindByID(ctx, id)
}

type SubmissionCounts struct {
	Total        int `json:"total"`
	Self         int `json:"self"`
	Organization int `json:"organization"`
}

func (s *SubmissionService) Counts(ctx context.Context) (*SubmissionCounts, error) {
	total, err := s.subs.Count(ctx, "")
	if err != nil {
		return nil, err
	}
	self, err := s.subs.Count(ctx, models.NatureSelf)
	if err != nil {
		return nil, err
	}
	org, err := s.subs.Count(ctx, models.NatureOrganization)
	if err != nil {
		return nil, err
	}
	return &SubmissionCounts{Total: total, Self: self, Organization: org}, nil
}
