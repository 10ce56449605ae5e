package ingest

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/AngelCh415/socialdash/internal/utils"
)

// requester wraps doJSON with rate limiting and retries. Transport errors and
// 429/5xx are retried; other statuses and decode errors are not.
type requester struct {
	c       HTTPClient
	limiter *rate.Limiter
	backoff utils.Backoff
	token   string
}

func (r *requester) do(ctx context.Context, method, url string, body, dst any) error {
	return r.backoff.Do(ctx, func(int) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return utils.Permanent(err)
			}
		}
		err := doJSON(ctx, r.c, method, url, r.token, body, dst)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return utils.Permanent(err)
		}
		if errors.Is(err, errEmptyURL) || ctx.Err() != nil || isDecodeErr(err) {
			return utils.Permanent(err)
		}
		return err
	})
}

// once is do without retries, for requests that must not be repeated.
func (r *requester) once(ctx context.Context, method, url string, body, dst any) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return doJSON(ctx, r.c, method, url, r.token, body, dst)
}
