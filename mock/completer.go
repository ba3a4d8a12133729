package mock

import (
	"context"

	"github.com/fwojciec/revex"
)

var _ revex.Completer = (*Completer)(nil)

// Completer is a mock implementation of revex.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, req revex.CompletionRequest) (string, error)
}

func (c *Completer) Complete(ctx context.Context, req revex.CompletionRequest) (string, error) {
	return c.CompleteFn(ctx, req)
}
