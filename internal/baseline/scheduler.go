package baseline

import (
	"context"
	"sync"

	"github.com/roylee0704/gron"

	"fbd/internal/baseline/interfaces"
	"fbd/internal/providers"
	"fbd/internal/structures"
)

type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	engine  EngineInterface
	store   StoreInterface
	metrics providers.MetricsProviderInterface
	cron    *gron.Cron
	opsMu   sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Baseline.SaveInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		if err := s.store.Flush(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while flushing store: %s", err)
			return
		}
		s.logger.Debugf(providers.TypeApp, "Store flushed")
	})

	s.cron.AddFunc(gron.Every(s.config.Baseline.RefreshInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		s.logger.Infof(providers.TypeApp, "Refreshing baselines from ledger...")
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Baseline.RefreshInterval)
		defer cancel()
		s.engine.RefreshAll(ctx)
		s.metrics.SetIdentitiesTotal(len(s.store.Identities()))
		s.logger.Infof(providers.TypeApp, "Baselines refreshed")
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	if err := s.store.Restore(); err != nil {
		return err
	}
	s.metrics.SetIdentitiesTotal(len(s.store.Identities()))
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Flushing baseline store...")
	if err := s.store.Flush(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while flushing store: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, engine EngineInterface, store StoreInterface, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		engine:  engine,
		store:   store,
		metrics: metrics,
	}
}
