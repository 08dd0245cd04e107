package loop

import (
	"context"
	"sync"
	"time"

	"github.com/r0-loop/r0/internal/vcs"
)

// progressPoller periodically samples working-tree diff stats while an agent
// runs. Its results only feed the display.
type progressPoller struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// startPoller begins polling every interval. Results are passed to sink from
// the poller goroutine.
func startPoller(ctx context.Context, interval time.Duration, inspector vcs.Inspector, sink func(vcs.Stats)) *progressPoller {
	pctx, cancel := context.WithCancel(ctx)
	p := &progressPoller{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-pctx.Done():
				return
			case <-ticker.C:
				stats := inspector.CombinedStats(pctx)
				if pctx.Err() != nil {
					return
				}
				sink(stats)
			}
		}
	}()
	return p
}

// Stop cancels polling and waits for the goroutine to exit. No sink call
// happens after Stop returns. Safe to call more than once.
func (p *progressPoller) Stop() {
	p.once.Do(func() {
		p.cancel()
		<-p.done
	})
}
