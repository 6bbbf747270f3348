package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultPollInterval = time.Second

// Versioner reports a value that changes whenever any note of owner is
// inserted, updated or deleted, by this process or another one.
type Versioner interface {
	Version(ctx context.Context, owner string) (string, error)
}

// PollBus delivers local publishes immediately and notices writes made by
// other processes by polling the backend's version of each subscribed owner.
type PollBus struct {
	local    Bus
	versions Versioner
	interval time.Duration
	log      zerolog.Logger
}

func NewPollBus(local Bus, versions Versioner, interval time.Duration, log zerolog.Logger) *PollBus {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &PollBus{local: local, versions: versions, interval: interval, log: log}
}

func (b *PollBus) Publish(ctx context.Context, owner string) error {
	return b.local.Publish(ctx, owner)
}

func (b *PollBus) Subscribe(ctx context.Context, owner string) (<-chan struct{}, func(), error) {
	local, unsubscribe, err := b.local.Subscribe(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	// read the starting version before returning so the caller's first
	// query is never older than it
	last, err := b.versions.Version(ctx, owner)
	if err != nil {
		unsubscribe()
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-local:
				signalChange(out)
			case <-ticker.C:
				v, err := b.versions.Version(ctx, owner)
				if err != nil {
					if ctx.Err() == nil {
						b.log.Debug().Err(err).Str("owner", owner).Msg("poll note version")
					}
					continue
				}
				if v != last {
					last = v
					signalChange(out)
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			unsubscribe()
		})
	}
	return out, stop, nil
}

func signalChange(out chan struct{}) {
	select {
	case out <- struct{}{}:
	default:
	}
}
