package usecase

import (
	"context"
	"fmt"

	"carpool-api/internal/data/repository"
	"carpool-api/internal/dto/response"
	"carpool-api/internal/lifecycle"

	"go.uber.org/zap"
)

type AdminService interface {
	Stats(ctx context.Context, actor lifecycle.Actor) (*response.StatsResponse, error)
}

type adminService struct {
	stats repository.StatsRepository
	log   *zap.Logger
}

func NewAdminService(stats repository.StatsRepository, log *zap.Logger) AdminService {
	return &adminService{
		stats: stats,
		log:   log.With(zap.String("service", "admin")),
	}
}

func (s *adminService) Stats(ctx context.Context, actor lifecycle.Actor) (*response.StatsResponse, error) {
	if err := lifecycle.Authorize(actor, lifecycle.ActionViewStats, lifecycle.Resource{}); err != nil {
		return nil, err
	}

	stats, err := s.stats.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}

	resp := response.StatsToResponse(stats)
	return &resp, nil
}
