package bridge

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/foreign"
)

// component is the state shared by every wrapper: the handle it owns and
// the capability it serves.
type component struct {
	handle     *foreign.Handle
	logger     *slog.Logger
	capability entities.Capability
	name       string
}

// open takes a handle on v, verifies it against contract and runs inspect
// with the lock held. The handle is closed again on failure.
func open(ctx context.Context, v foreign.Value, contract entities.Contract, cfg config, inspect func(*foreign.Access) error) (component, error) {
	h, err := foreign.NewHandle(ctx, v)
	if err != nil {
		return component{}, err
	}
	c := component{
		handle:     h,
		capability: contract.Capability,
		logger:     cfg.logger.With("capability", string(contract.Capability)),
	}

	acc, err := h.Acquire(ctx)
	if err != nil {
		_ = h.Close(ctx)
		return component{}, err
	}
	err = checkContract(acc, contract)
	if err == nil && inspect != nil {
		err = inspect(acc)
	}
	acc.Release()

	if err != nil {
		_ = h.Close(ctx)
		return component{}, c.annotate(err)
	}
	return c, nil
}

// checkContract rejects a value that lacks a required operation or defines
// one with the wrong arity.
func checkContract(acc *foreign.Access, contract entities.Contract) error {
	for _, op := range contract.Operations {
		n, ok := acc.Arity(op.Name)
		if !ok {
			if op.Required {
				return bridgeerrors.NotImplemented(contract.Capability, op.Name)
			}
			continue
		}
		if n >= 0 && n != op.Arity {
			return &bridgeerrors.ContractViolationError{
				Capability: contract.Capability,
				Operation:  op.Name,
				Reason:     fmt.Sprintf("%s.%s takes %d arguments, expected %d", acc.TypeName(), op.Name, n, op.Arity),
			}
		}
	}
	return nil
}

// resolveName returns the foreign name() override, or the runtime type name.
func resolveName(ctx context.Context, acc *foreign.Access, c entities.Capability) (string, error) {
	if acc.Has(entities.OpName) {
		v, err := acc.Call(ctx, entities.OpName, foreign.KindString)
		if err != nil {
			return "", err
		}
		if name := v.(string); name != "" {
			return name, nil
		}
		return "", &bridgeerrors.ContractViolationError{
			Capability: c,
			Operation:  entities.OpName,
			Reason:     "name() returned an empty string",
		}
	}
	if name := acc.TypeName(); name != "" {
		return name, nil
	}
	return "", &bridgeerrors.ContractViolationError{
		Capability: c,
		Operation:  entities.OpName,
		Reason:     "no name() override and no runtime type name",
	}
}

// call runs one foreign method under the interpreter lock.
func (c *component) call(ctx context.Context, op string, want foreign.Kind, args ...any) (any, error) {
	acc, err := c.handle.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer acc.Release()

	v, err := acc.Call(ctx, op, want, args...)
	if err != nil {
		return nil, c.annotate(err)
	}
	return v, nil
}

// absorb resolves the outcome of an operation that has a default: foreign
// exceptions are logged and dropped, everything else is returned.
func (c *component) absorb(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var exc *bridgeerrors.ForeignException
	if stdErrors.As(err, &exc) {
		c.logger.WarnContext(ctx, "bridge: foreign exception absorbed",
			"method", op,
			"type", exc.Type,
			"error", exc.Message,
		)
		return nil
	}
	return err
}

// annotate fills in the capability of contract violations raised below the
// wrapper.
func (c *component) annotate(err error) error {
	var cv *bridgeerrors.ContractViolationError
	if stdErrors.As(err, &cv) && cv.Capability == "" {
		cv.Capability = c.capability
	}
	return err
}

// Name returns the stable identity resolved at construction.
func (c *component) Name() string {
	return c.name
}

// Handle returns the handle the wrapper owns.
func (c *component) Handle() *foreign.Handle {
	return c.handle
}

// Close releases the wrapper's reference on the foreign value.
func (c *component) Close(ctx context.Context) error {
	return c.handle.Close(ctx)
}

// closeOnCollect closes h when owner becomes unreachable without Close.
func closeOnCollect[T any](owner *T, h *foreign.Handle) {
	runtime.AddCleanup(owner, func(h *foreign.Handle) {
		if !h.Closed() {
			_ = h.Close(context.Background())
		}
	}, h)
}

func isMissing(err error) bool {
	return stdErrors.Is(err, bridgeerrors.ErrMethodMissing)
}
