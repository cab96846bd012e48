// Package sources provides item producers and a sample user operation meant
// to be paired with rivulet's engine: an HTTP pagination source that feeds a
// stream channel, and a chat-completion operation exercising the
// openai-go/v3 + golang.org/x/oauth2 stack as a realistic, retryable,
// rate-limitable per-item operation.
package sources

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Page is one page of items fetched from an HTTP API.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// HTTPStreamSource pages through a cursor-based HTTP API with resty and
// feeds every item onto a channel suitable for
// rivulet.SelectParallelStream/ForEachParallelStream. It is grounded on
// Freitascorp-devopsclaw's use of go-resty/resty/v2 for outbound HTTP calls
// to its chat-platform backends.
type HTTPStreamSource[T any] struct {
	client   *resty.Client
	url      string
	fetch    func(ctx context.Context, client *resty.Client, url, cursor string) (Page[T], error)
}

// NewHTTPStreamSource builds a source that repeatedly calls fetch starting
// from an empty cursor until it returns an empty NextCursor.
func NewHTTPStreamSource[T any](
	baseURL string,
	fetch func(ctx context.Context, client *resty.Client, url, cursor string) (Page[T], error),
) *HTTPStreamSource[T] {
	return &HTTPStreamSource[T]{client: resty.New(), url: baseURL, fetch: fetch}
}

// Stream starts a goroutine that pages through the API, sending each item on
// the returned channel and closing it when pagination ends, ctx is
// cancelled, or fetch returns an error (in which case errCh receives exactly
// one error before both channels close).
func (s *HTTPStreamSource[T]) Stream(ctx context.Context) (<-chan T, <-chan error) {
	items := make(chan T)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		cursor := ""
		for {
			page, err := s.fetch(ctx, s.client, s.url, cursor)
			if err != nil {
				select {
				case errs <- fmt.Errorf("sources: fetch page: %w", err):
				default:
				}
				return
			}
			for _, it := range page.Items {
				select {
				case items <- it:
				case <-ctx.Done():
					return
				}
			}
			if page.NextCursor == "" {
				return
			}
			cursor = page.NextCursor

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()

	return items, errs
}
