package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"nihaarpos/internal/caching"
	"nihaarpos/internal/repositories"
)

// JobScheduler manages recurring background jobs
type JobScheduler struct {
	scheduler   gocron.Scheduler
	catalogRepo repositories.CatalogRepository
	cacheSvc    caching.CacheService
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(catalogRepo repositories.CatalogRepository, cacheSvc caching.CacheService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		catalogRepo: catalogRepo,
		cacheSvc:    cacheSvc,
	}
	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Daily sold-today reset at local midnight. The counter only feeds the
	// "Sold Today" report column; sales history itself is never touched.
	_, err := js.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(js.resetDailyCounters),
		gocron.WithName("daily-counter-reset"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create daily counter reset job: %v", err)
	}

	// Hourly cache sweep so a missed invalidation cannot go stale forever.
	_, err = js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.sweepCache),
		gocron.WithName("cache-sweep"),
	)
	if err != nil {
		log.Printf("Failed to create cache sweep job: %v", err)
	}
}

func (js *JobScheduler) resetDailyCounters() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reset, err := js.catalogRepo.ResetDailyCounters(ctx)
	if err != nil {
		log.Printf("Daily counter reset failed: %v", err)
		return
	}
	if err := js.cacheSvc.InvalidateAll(ctx); err != nil {
		log.Printf("Cache invalidation after counter reset failed: %v", err)
	}
	log.Printf("Daily sold counters reset for %d products", reset)
}

func (js *JobScheduler) sweepCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := js.cacheSvc.InvalidateAll(ctx); err != nil {
		log.Printf("Cache sweep failed: %v", err)
	}
}
