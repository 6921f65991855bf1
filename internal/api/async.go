package api

import (
	"context"

	"github.com/preston-bernstein/match-overlay/internal/domain"
)

// Result carries the outcome of an asynchronous request.
type Result[T any] struct {
	Value T
	Err   error
}

// Async runs fn on its own goroutine and delivers exactly one Result.
// The channel is buffered so the goroutine never blocks if the caller stops listening.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn(ctx)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// MatchDurationAsync is the non-blocking variant of MatchDuration.
func (c *Client) MatchDurationAsync(ctx context.Context) <-chan Result[int] {
	return Async(ctx, c.MatchDuration)
}

// CurrentMatchAsync is the non-blocking variant of CurrentMatch.
func (c *Client) CurrentMatchAsync(ctx context.Context) <-chan Result[domain.CurrentMatch] {
	return Async(ctx, c.CurrentMatch)
}

// CurrentMatchScoreAsync is the non-blocking variant of CurrentMatchScore.
func (c *Client) CurrentMatchScoreAsync(ctx context.Context) <-chan Result[domain.Score] {
	return Async(ctx, c.CurrentMatchScore)
}

// ShouldSwitchTVsAsync is the non-blocking variant of ShouldSwitchTVs.
func (c *Client) ShouldSwitchTVsAsync(ctx context.Context) <-chan Result[bool] {
	return Async(ctx, c.ShouldSwitchTVs)
}
