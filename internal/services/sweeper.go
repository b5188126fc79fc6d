package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"driftchat/internal/repository"
	"driftchat/internal/storage"
	drift_errors "driftchat/pkg/errors"
	"driftchat/pkg/logger"
)

// Sweeper periodically deletes messages whose retention window has elapsed
// and reclaims their external media. Retention is baked into each message's
// DeleteAt at creation time (30 days for random chat, 90 for private), so a
// single pass covers both windows.
type Sweeper struct {
	msgs     repository.MessageRepository
	media    storage.MediaDeleter
	log      *logger.Logger
	interval time.Duration
	batch    int
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(msgs repository.MessageRepository, media storage.MediaDeleter, log *logger.Logger, interval time.Duration) *Sweeper {
	if interval == 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{
		msgs:     msgs,
		media:    media,
		log:      log,
		interval: interval,
		batch:    500,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop gracefully shuts down.
func (s *Sweeper) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Sweeper) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if deleted, err := s.SweepOnce(context.Background()); err != nil {
				s.log.Errorf("message sweep failed: %v", err)
			} else if deleted > 0 {
				s.log.Infof("message sweep deleted %d expired messages", deleted)
			}
		}
	}
}

// SweepOnce deletes one batch of expired messages. For each expired message
// the external media is deleted first; only then the row. A media-deletion
// failure skips that message and continues with the rest.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired, err := s.msgs.ListExpired(ctx, time.Now(), s.batch)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, m := range expired {
		if m.HasMedia() {
			if err := s.media.DeleteByURL(ctx, m.MediaURL.String); err != nil {
				s.log.Warnf("delete media %s: %v", m.MediaURL.String, err)
				continue
			}
		}
		if err := s.msgs.Delete(ctx, m.ID); err != nil {
			if !errors.Is(err, drift_errors.ErrNotFound) {
				s.log.Warnf("delete message %s: %v", m.ID, err)
			}
			continue
		}
		deleted++
	}
	return deleted, nil
}
