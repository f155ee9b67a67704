package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/foodgram-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const refreshTimeout = 30 * time.Second

// CatalogRefresher rebuilds cached catalog data. Implemented by service.TagService.
type CatalogRefresher interface {
	RefreshCache(ctx context.Context) error
}

// CatalogScheduler periodically re-warms the tag cache.
type CatalogScheduler struct {
	cron      *cron.Cron
	spec      string
	refresher CatalogRefresher
}

func NewCatalogScheduler(spec string, refresher CatalogRefresher) *CatalogScheduler {
	return &CatalogScheduler{
		cron:      cron.New(),
		spec:      spec,
		refresher: refresher,
	}
}

// Start registers the refresh job and starts the cron runner.
func (s *CatalogScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.refresh)
	if err != nil {
		logger.Error("Failed to add cron job for catalog refresh", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Catalog scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

func (s *CatalogScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.refresher.RefreshCache(ctx); err != nil {
		logger.Error("Scheduled catalog refresh failed", err)
		return
	}
	logger.Debug("Catalog cache refreshed", nil)
}

// Stop waits for a running job to finish.
func (s *CatalogScheduler) Stop() {
	logger.Info("Stopping catalog scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Catalog scheduler stopped", nil)
}
