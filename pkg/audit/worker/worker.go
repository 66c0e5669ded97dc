package worker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"audittrail/pkg/audit"
)

// Pool consumes audit records from a channel and persists them with a fixed
// number of workers. It keeps background shipping testable without wiring
// queue implementations. Run returns when the inbox closes, or with the
// first append error.
type Pool struct {
	store   audit.Store
	inbox   <-chan audit.Record
	workers int
	log     *slog.Logger
}

type Option func(*Pool)

// WithWorkers sets the number of concurrent append workers.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

func NewPool(store audit.Store, inbox <-chan audit.Record, opts ...Option) *Pool {
	p := &Pool{
		store:   store,
		inbox:   inbox,
		workers: 1,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for range p.workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case rec, ok := <-p.inbox:
					if !ok {
						return nil
					}
					if err := p.store.Append(ctx, rec); err != nil {
						p.log.Error("background audit append failed", "record", rec.ID, "err", err)
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}
