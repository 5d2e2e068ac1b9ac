package lobby

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Reaper runs SweepIdle on a fixed interval until its context is cancelled.
type Reaper struct {
	svc      *Service
	interval time.Duration
	log      *logrus.Entry
}

func NewReaper(svc *Service, log *logrus.Entry) *Reaper {
	return &Reaper{
		svc:      svc,
		interval: svc.Config().SweepInterval,
		log:      log.WithField("component", "reaper"),
	}
}

func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	rp.log.WithField("interval", rp.interval.String()).Info("reaper started")
	for {
		select {
		case <-ctx.Done():
			rp.log.Info("reaper stopped")
			return
		case <-ticker.C:
			rp.sweep()
		}
	}
}

func (rp *Reaper) sweep() {
	defer func() {
		if r := recover(); r != nil {
			rp.log.WithField("panic", r).Error("sweep panicked")
		}
	}()
	if reaped := rp.svc.SweepIdle(); len(reaped) > 0 {
		rp.log.WithField("rooms", reaped).Info("sweep closed idle rooms")
	}
}
