package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/ThomasWega/TG-Middleware/pkg/logger"
)

func TestPoolRunsAllTasks(t *testing.T) {
	properties := gopter.NewProperties(nil)
	l := logger.Nop()

	properties.Property("all submitted tasks are eventually executed", prop.ForAll(
		func(numTasks, numWorkers int) bool {
			p := New(l, numWorkers, numTasks)
			p.Start(context.Background())

			var ran int64
			for i := 0; i < numTasks; i++ {
				err := p.Submit(context.Background(), func(ctx context.Context) {
					atomic.AddInt64(&ran, 1)
				})
				if err != nil {
					return false
				}
			}

			if err := p.Shutdown(context.Background()); err != nil {
				return false
			}
			return atomic.LoadInt64(&ran) == int64(numTasks)
		},
		gen.IntRange(1, 200),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	p := New(logger.Nop(), 2, 4)
	p.Start(context.Background())

	assert.NoError(t, p.Shutdown(context.Background()))

	err := p.Submit(context.Background(), func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestPoolShutdownWaitsForBlockedSubmit(t *testing.T) {
	p := New(logger.Nop(), 1, 1)
	p.Start(context.Background())

	gate := make(chan struct{})
	var ran int64
	count := func(ctx context.Context) { atomic.AddInt64(&ran, 1) }

	// Park the single worker, then fill the one queue slot.
	assert.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		<-gate
		atomic.AddInt64(&ran, 1)
	}))
	assert.NoError(t, p.Submit(context.Background(), count))

	// This submit blocks on the full queue until the worker drains it.
	submitErr := make(chan error, 1)
	go func() {
		submitErr <- p.Submit(context.Background(), count)
	}()
	time.Sleep(50 * time.Millisecond)

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- p.Shutdown(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)

	close(gate)

	assert.NoError(t, <-submitErr)
	assert.NoError(t, <-shutdownErr)
	assert.EqualValues(t, 3, atomic.LoadInt64(&ran))
}

func TestPoolDoubleShutdown(t *testing.T) {
	p := New(logger.Nop(), 1, 2)
	p.Start(context.Background())

	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func BenchmarkPoolSubmit(b *testing.B) {
	p := New(logger.Nop(), 4, 1024)
	p.Start(context.Background())
	defer p.Shutdown(context.Background())

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = p.Submit(context.Background(), func(ctx context.Context) {})
	}
}
