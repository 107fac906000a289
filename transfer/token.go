package transfer

import (
	"context"
	"errors"
	"sync/atomic"
)

// Token is a one-shot cancellation signal for a single upload attempt.
// Once signaled it stays signaled; a new attempt must mint a new Token.
type Token struct {
	ctx      context.Context
	cancel   context.CancelFunc
	signaled atomic.Bool
}

// NewToken returns an unsignaled token.
func NewToken() *Token {
	ctx, cancel := context.WithCancel(context.Background())
	return &Token{ctx: ctx, cancel: cancel}
}

// Signal requests cancellation. Calling it more than once is a no-op.
func (t *Token) Signal() {
	if t.signaled.CompareAndSwap(false, true) {
		t.cancel()
	}
}

// Signaled reports whether Signal has been called.
func (t *Token) Signaled() bool {
	return t.signaled.Load()
}

// Context is bound to the token: it is done once the token is signaled.
func (t *Token) Context() context.Context {
	return t.ctx
}

func (t *Token) Done() <-chan struct{} {
	return t.ctx.Done()
}

// ErrCancelled is the cause carried by results of a cancelled upload.
var ErrCancelled = errors.New("upload cancelled")
