// Package async runs background work that outlives or sits beside a request,
// keeping request-scoped values such as the correlation ID and trace span.
package async

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/richxcame/map-directions/pkg/logger"
	"go.uber.org/zap"
)

type mergedContext struct {
	context.Context
	values context.Context
}

func (m mergedContext) Value(key interface{}) interface{} {
	if v := m.values.Value(key); v != nil {
		return v
	}
	return m.Context.Value(key)
}

// WithValuesFrom returns a context that is cancelled with parent but resolves
// values from source first. A view's fetch uses it so its goroutine dies with
// the view yet logs under the caller's correlation ID.
func WithValuesFrom(parent, source context.Context) context.Context {
	if source == nil {
		return parent
	}
	return mergedContext{Context: parent, values: source}
}

// GoWithTimeout runs fn in a goroutine detached from ctx's cancellation and
// bounded by timeout. Panics are logged, not propagated.
//
//	async.GoWithTimeout(ctx, "publish-routes-ready", 5*time.Second, func(ctx context.Context) {
//	    publisher.Publish(ctx, subject, event)
//	})
func GoWithTimeout(ctx context.Context, task string, timeout time.Duration, fn func(ctx context.Context)) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	go func() {
		defer cancel()
		defer recoverTask(taskCtx, task)

		started := time.Now()
		fn(taskCtx)

		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			logger.WarnContext(taskCtx, "async task timed out",
				zap.String("task", task),
				zap.Duration("timeout", timeout),
			)
			return
		}
		logger.DebugContext(taskCtx, "async task completed",
			zap.String("task", task),
			zap.Duration("duration", time.Since(started)),
		)
	}()
}

// GoTracked runs fn with ctx as given, so cancelling ctx cancels the task.
// The goroutine is registered with wg before GoTracked returns.
func GoTracked(ctx context.Context, wg *sync.WaitGroup, task string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer recoverTask(ctx, task)
		fn(ctx)
	}()
}

func recoverTask(ctx context.Context, task string) {
	if r := recover(); r != nil {
		logger.ErrorContext(ctx, "async task panicked",
			zap.String("task", task),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
		)
	}
}
