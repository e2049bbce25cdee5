package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Pruner deletes records older than a number of days and reports how many
// went.
type Pruner interface {
	Prune(ctx context.Context, days int) (int64, error)
}

// RetentionJob periodically prunes the legacy global chat log.
type RetentionJob struct {
	chat          Pruner
	retentionDays int
	interval      time.Duration
	done          chan struct{}
}

func NewRetentionJob(chat Pruner, retentionDays int, interval time.Duration) *RetentionJob {
	return &RetentionJob{
		chat:          chat,
		retentionDays: retentionDays,
		interval:      interval,
		done:          make(chan struct{}),
	}
}

// Enabled reports whether there is anything to prune. A job with zero
// retention days is never started.
func (j *RetentionJob) Enabled() bool {
	return j.chat != nil && j.retentionDays > 0
}

func (j *RetentionJob) Start() {
	if !j.Enabled() {
		log.Info().Msg("retention job disabled: global chat kept forever")
		return
	}
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Int("retentionDays", j.retentionDays).
		Msg("retention job started")
}

func (j *RetentionJob) Stop() {
	if !j.Enabled() {
		return
	}
	close(j.done)
	log.Info().Msg("retention job stopped")
}

func (j *RetentionJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *RetentionJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "global chat messages", func(ctx context.Context) (int64, error) {
		return j.chat.Prune(ctx, j.retentionDays)
	})
}

func (j *RetentionJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to prune %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("pruned %s", name)
	}
}
