package markov

import (
	"context"
	"log/slog"
)

// Stream runs the walker on its own goroutine and returns a channel of the
// tokens it produces. The channel is closed once the walker is exhausted or the
// context is cancelled; since a walk may be unbounded, callers that stop
// reading early must cancel ctx to release the goroutine. The walker must not
// be used directly while a stream is running.
func (w *Walker) Stream(ctx context.Context) <-chan string {
	tokenChan := make(chan string)

	go func() {
		defer close(tokenChan)

		for {
			select {
			case <-ctx.Done():
				w.opts.logger.DebugContext(ctx, "Walk stream cancelled by context",
					slog.Int("emitted", w.emitted),
				)
				return
			default:
				// continue
			}

			token, ok := w.Next()
			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				return
			case tokenChan <- token:
			}
		}
	}()

	return tokenChan
}
