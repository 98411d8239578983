package transfer_test

import "context"

func contextWithCancelNow(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	cancel()

	return ctx, cancel
}
