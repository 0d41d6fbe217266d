package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/metrics"
)

// SweepResult counts what one sweep changed.
type SweepResult struct {
	Expired int
	Evicted int
}

// Sweeper periodically expires stale sessions and evicts terminal ones past retention.
type Sweeper struct {
	service  *SessionService
	interval time.Duration
}

func NewSweeper(service *SessionService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{service: service, interval: interval}
}

// Run sweeps on every tick until ctx is done.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := w.SweepOnce(ctx)
			if err != nil {
				log.Printf("session sweep failed: %v", err)
				continue
			}
			if res.Expired > 0 || res.Evicted > 0 {
				log.Printf("session sweep: expired=%d evicted=%d", res.Expired, res.Evicted)
			}
		}
	}
}

// SweepOnce runs a single pass over the store.
func (w *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	return w.service.sweep(ctx)
}

func (s *SessionService) sweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	var candidates []string
	err := s.store.Scan(ctx, func(session domain.Session) error {
		if s.staleReason(&session, now) != "" || s.evictable(&session, now) {
			candidates = append(candidates, session.ID)
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, fmt.Errorf("scan sessions: %w", err)
	}

	var res SweepResult
	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		expired, evicted, err := s.sweepSession(ctx, id, now)
		if err != nil {
			return res, err
		}
		if expired {
			res.Expired++
		}
		if evicted {
			res.Evicted++
		}
	}
	return res, nil
}

// sweepSession re-checks one candidate under its lock; it may have changed since the scan.
func (s *SessionService) sweepSession(ctx context.Context, id string, now time.Time) (expired, evicted bool, err error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return false, false, nil
		}
		return false, false, err
	}
	if reason := s.staleReason(&session, now); reason != "" {
		if err := s.expire(ctx, &session, reason, now); err != nil {
			return false, false, err
		}
		expired = true
	}
	if s.evictable(&session, now) {
		if err := s.store.Delete(ctx, id); err != nil {
			return expired, false, fmt.Errorf("delete session: %w", err)
		}
		metrics.SessionsEvicted.Inc()
		evicted = true
	}
	return expired, evicted, nil
}

func (s *SessionService) evictable(session *domain.Session, now time.Time) bool {
	if !session.Status.Terminal() || session.CompletedAt == nil {
		return false
	}
	return now.Sub(*session.CompletedAt) > s.settings.Retention
}
