package internal

import (
	"context"
	"sync"
)

type ctxKey string

const (
	ContextUserKey     ctxKey = "userID"
	contextIdentityKey ctxKey = "requestIdentity"
)

// RequestIdentity is installed by outer middleware so that identity resolved
// deeper in the chain is visible once the inner handlers return.
type RequestIdentity struct {
	mu     sync.Mutex
	userID string
}

func (i *RequestIdentity) UserID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.userID
}

func (i *RequestIdentity) setUserID(userID string) {
	i.mu.Lock()
	i.userID = userID
	i.mu.Unlock()
}

// WithRequestIdentity attaches an empty identity holder to ctx.
func WithRequestIdentity(ctx context.Context) (context.Context, *RequestIdentity) {
	id := &RequestIdentity{}
	return context.WithValue(ctx, contextIdentityKey, id), id
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	if id, ok := ctx.Value(contextIdentityKey).(*RequestIdentity); ok {
		return id.UserID()
	}
	return ""
}

// ContextWithUserID stores userID on ctx and records it in the request
// identity holder, when one was installed upstream.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if id, ok := ctx.Value(contextIdentityKey).(*RequestIdentity); ok {
		id.setUserID(userID)
	}
	return context.WithValue(ctx, ContextUserKey, userID)
}
