package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Flusher rewrites store keys whose earlier writes failed.
type Flusher interface {
	FlushPending(ctx context.Context) (int, error)
	Pending() int
}

// finalFlushTimeout bounds the last attempt made while shutting down.
const finalFlushTimeout = 5 * time.Second

// PersistWorker retries failed form writes until the store accepts them.
type PersistWorker struct {
	flusher      Flusher
	interval     time.Duration
	finalTimeout time.Duration
	log          zerolog.Logger
}

// NewPersistWorker creates a PersistWorker that checks every interval.
func NewPersistWorker(flusher Flusher, interval time.Duration, log zerolog.Logger) *PersistWorker {
	return &PersistWorker{
		flusher:      flusher,
		interval:     interval,
		finalTimeout: finalFlushTimeout,
		log:          log.With().Str("component", "persist_worker").Logger(),
	}
}

// Start runs until ctx is done, then makes one last attempt. Call in a
// goroutine.
func (w *PersistWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			flushCtx, cancel := context.WithTimeout(context.Background(), w.finalTimeout)
			w.flush(flushCtx)
			cancel()
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *PersistWorker) flush(ctx context.Context) {
	if w.flusher.Pending() == 0 {
		return
	}
	n, err := w.flusher.FlushPending(ctx)
	if err != nil {
		w.log.Warn().Err(err).Int("flushed", n).Int("pending", w.flusher.Pending()).Msg("Retry failed, will try again")
		return
	}
	w.log.Info().Int("flushed", n).Msg("Pending writes stored")
}
