package foreign

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
)

// Ref is an opaque reference to a native value lent to foreign code for one call.
// Guests receive only the ID.
type Ref struct {
	Kind string
	ID   uint64
}

func (r Ref) String() string {
	return fmt.Sprintf("<%s #%d>", r.Kind, r.ID)
}

// scopeKey is the context key of the active call scope.
type scopeKey struct{}

// callScope is the state of one foreign call: the lock it runs under, the
// references lent to it and an exception raised through the host.
type callScope struct {
	lock   *Lock
	raised *bridgeerrors.ForeignException
	method string
	refs   []any
	closed atomic.Bool
}

func newCallScope(lock *Lock, method string) *callScope {
	return &callScope{lock: lock, method: method}
}

// lend translates native arguments into their foreign representation.
// Scalars are passed by value; everything else becomes a Ref.
func (s *callScope) lend(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case nil, bool, string, int, int32, int64, uint32, uint64, float64,
			entities.ExitKind, entities.CorpusID, entities.MutationResult, Ref:
			out[i] = v
		default:
			s.refs = append(s.refs, a)
			out[i] = Ref{ID: uint64(len(s.refs)), Kind: refKind(a)}
		}
	}
	return out
}

func (s *callScope) borrow(ref Ref) (any, bool) {
	if s.closed.Load() || ref.ID == 0 || ref.ID > uint64(len(s.refs)) {
		return nil, false
	}
	return s.refs[ref.ID-1], true
}

func (s *callScope) close() {
	s.closed.Store(true)
	s.refs = nil
}

func refKind(v any) string {
	return fmt.Sprintf("%T", v)
}

func withScope(ctx context.Context, s *callScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) (*callScope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*callScope)
	return s, ok && s != nil
}

// holds reports whether ctx belongs to a call running under l.
func holds(ctx context.Context, l *Lock) bool {
	s, ok := scopeFrom(ctx)
	return ok && !s.closed.Load() && s.lock == l
}

// Borrow resolves a reference lent to the call ctx belongs to.
// It fails once the call has returned.
func Borrow(ctx context.Context, ref Ref) (any, bool) {
	s, ok := scopeFrom(ctx)
	if !ok {
		return nil, false
	}
	return s.borrow(ref)
}

// BorrowID resolves a reference by its numeric id, as received from a guest.
func BorrowID(ctx context.Context, id uint64) (any, bool) {
	return Borrow(ctx, Ref{ID: id})
}

// RaiseIn records an exception raised by foreign code through a host function.
// The exception is reported when the foreign call returns, whatever it returned.
// It reports false when ctx is not inside a foreign call.
func RaiseIn(ctx context.Context, typ, message string) bool {
	s, ok := scopeFrom(ctx)
	if !ok || s.closed.Load() {
		return false
	}
	if s.raised == nil {
		s.raised = &bridgeerrors.ForeignException{Type: typ, Message: message, Method: s.method}
	}
	return true
}

// CurrentMethod returns the foreign method the call ctx belongs to.
func CurrentMethod(ctx context.Context) (string, bool) {
	s, ok := scopeFrom(ctx)
	if !ok {
		return "", false
	}
	return s.method, true
}
