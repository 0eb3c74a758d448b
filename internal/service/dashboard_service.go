package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

type DashboardService interface {
	Stats(ctx context.Context, actor policy.Actor) (*models.DashboardStats, error)
}

type dashboardService struct {
	stg  storage.IDashboardStorage
	opts Options
	log  logrus.FieldLogger
}

func NewDashboardService(stg storage.IStorage, opts Options, log logrus.FieldLogger) DashboardService {
	return &dashboardService{stg: stg.Dashboard(), opts: opts, log: log}
}

func (s *dashboardService) Stats(ctx context.Context, actor policy.Actor) (*models.DashboardStats, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindDashboard, Op: policy.OpRead}); err != nil {
		return nil, err
	}
	stats, err := s.stg.Stats(ctx, s.opts.Now().Add(s.opts.MaintenanceDueWindow))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stats, nil
}
