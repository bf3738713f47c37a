package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/profiles"
	"malt-scraper/pkg/utils"
)

// Processor acquires or serves one profile
type Processor interface {
	ProcessProfile(ctx context.Context, url string) (*profiles.Result, error)
}

// Result is the outcome for one input URL
type Result struct {
	URL      string
	Result   *profiles.Result
	Err      error
	Duration time.Duration
}

// PoolStats tracks worker pool statistics
type PoolStats struct {
	Processed           int64
	Successful          int64
	Failed              int64
	Skipped             int64
	TotalProcessingTime time.Duration
}

// AverageProcessingTime is the mean duration of processed URLs
func (s PoolStats) AverageProcessingTime() time.Duration {
	if s.Processed == 0 {
		return 0
	}
	return s.TotalProcessingTime / time.Duration(s.Processed)
}

// Pool processes a batch of profile URLs with a fixed number of workers.
// Every start goes through the limiter, so a tripped breaker skips the rest of the batch.
type Pool struct {
	processor Processor
	limiter   *Limiter
	workers   int
	logger    logging.Logger

	mu    sync.Mutex
	stats PoolStats
}

// NewPool creates a pool. limiter may be nil.
func NewPool(processor Processor, limiter *Limiter, workers int, logger logging.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		processor: processor,
		limiter:   limiter,
		workers:   workers,
		logger:    logging.OrGlobal(logger).WithField("component", "pool"),
	}
}

// Run processes urls and returns one result per url, in input order
func (p *Pool) Run(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	jobs := make(chan int)

	workers := p.workers
	if workers > len(urls) {
		workers = len(urls)
	}

	p.logger.Info("Batch started", map[string]interface{}{
		"urls":    len(urls),
		"workers": workers,
	})

	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.process(ctx, id, urls[i])
			}
		}(w)
	}

	for i := range urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	stats := p.Stats()
	p.logger.Info("Batch finished", map[string]interface{}{
		"processed":  stats.Processed,
		"successful": stats.Successful,
		"failed":     stats.Failed,
		"skipped":    stats.Skipped,
		"average":    utils.FormatDuration(stats.AverageProcessingTime()),
	})
	return results
}

func (p *Pool) process(ctx context.Context, workerID int, url string) Result {
	log := p.logger.WithFields(map[string]interface{}{"worker_id": workerID, "url": url})

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.record(func(s *PoolStats) { s.Skipped++ })
			if errors.Is(err, ErrCircuitOpen) {
				log.Warn("Skipped, circuit breaker open")
			}
			return Result{URL: url, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		p.record(func(s *PoolStats) { s.Skipped++ })
		return Result{URL: url, Err: err}
	}

	start := time.Now()
	res, err := p.processor.ProcessProfile(ctx, url)
	duration := time.Since(start)

	p.record(func(s *PoolStats) {
		s.Processed++
		s.TotalProcessingTime += duration
		if err != nil {
			s.Failed++
		} else {
			s.Successful++
		}
	})

	if p.limiter != nil {
		switch {
		case err == nil:
			p.limiter.RecordSuccess()
		case utils.IsChallengeUnresolved(err):
			p.limiter.RecordFailure(err)
		}
	}

	if err != nil {
		log.Error("Profile failed", map[string]interface{}{
			"error":    err.Error(),
			"kind":     utils.ErrorKind(err),
			"duration": utils.FormatDuration(duration),
		})
	} else {
		log.Info("Profile done", map[string]interface{}{
			"cached":   res.Cached,
			"duration": utils.FormatDuration(duration),
		})
	}

	return Result{URL: url, Result: res, Err: err, Duration: duration}
}

func (p *Pool) record(update func(*PoolStats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update(&p.stats)
}

// Stats returns a snapshot of the pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
