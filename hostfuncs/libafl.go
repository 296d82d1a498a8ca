package hostfuncs

import (
	"context"
	"fmt"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
	bridgeerrors "github.com/reglet-dev/fuzzbridge/domain/errors"
	"github.com/reglet-dev/fuzzbridge/domain/ports"
	"github.com/reglet-dev/fuzzbridge/foreign"
	"github.com/reglet-dev/fuzzbridge/skeleton"
)

// RefRequest names a value lent to the calling guest for the current call.
type RefRequest struct {
	// Ref is the reference id the guest received as a method argument.
	Ref uint64 `json:"ref"`
}

// InputBytesResponse carries the bytes of a lent input.
type InputBytesResponse struct {
	Error *entities.ErrorDetail `json:"error,omitempty"`
	Data  []byte                `json:"data,omitempty"`
}

// InputLenResponse carries the length of a lent input.
type InputLenResponse struct {
	Error *entities.ErrorDetail `json:"error,omitempty"`
	Len   int                   `json:"len"`
}

// StateInfoResponse summarizes a lent fuzzing state.
type StateInfoResponse struct {
	Error       *entities.ErrorDetail `json:"error,omitempty"`
	Executions  uint64                `json:"executions"`
	CorpusCount int                   `json:"corpus_count"`
}

// ObserverNamesResponse lists the observers of a lent observers tuple.
type ObserverNamesResponse struct {
	Error *entities.ErrorDetail `json:"error,omitempty"`
	Names []string              `json:"names"`
}

// SetMetadataRequest attaches metadata to a lent testcase.
type SetMetadataRequest struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
	Ref   uint64 `json:"ref"`
}

// AckResponse is returned by host functions without a result.
type AckResponse struct {
	Error *entities.ErrorDetail `json:"error,omitempty"`
	OK    bool                  `json:"ok"`
}

// ExitKindInfo is one entry of the exit kind table.
type ExitKindInfo struct {
	Tag  string `json:"tag"`
	Code int64  `json:"code"`
}

// ExitKindsResponse lists the exit kinds and their guest codes.
type ExitKindsResponse struct {
	Kinds []ExitKindInfo `json:"kinds"`
}

// DescribeClassRequest names a skeleton class; an empty name lists all.
type DescribeClassRequest struct {
	Name string `json:"name,omitempty"`
}

// DescribeClassResponse carries the requested classes.
type DescribeClassResponse struct {
	Error   *entities.ErrorDetail `json:"error,omitempty"`
	Classes []skeleton.Class      `json:"classes,omitempty"`
}

// RaiseRequest raises a foreign exception in the current call.
type RaiseRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AttachRequestWire asks the host to attach the calling guest.
type AttachRequestWire struct {
	// Export is the export invoked directly by as_fn_stage.
	Export string `json:"export,omitempty"`

	// Observers names the observer guests an executor reports.
	Observers []string `json:"observers,omitempty"`
}

// LibAFLBundle returns the core namespace host functions. Attach requests are
// forwarded to sink; a nil sink answers them with NOT_AVAILABLE.
func LibAFLBundle(sink ports.AttachSink) HostFuncBundle {
	handlers := Set{
		"input_bytes":           NewJSONHandler(PerformInputBytes),
		"input_len":             NewJSONHandler(PerformInputLen),
		"state_info":            NewJSONHandler(PerformStateInfo),
		"observer_names":        NewJSONHandler(PerformObserverNames),
		"testcase_set_metadata": NewJSONHandler(PerformSetMetadata),
		"exit_kinds": NewJSONHandler(func(ctx context.Context, _ struct{}) ExitKindsResponse {
			return PerformExitKinds(ctx)
		}),
		"describe_class": NewJSONHandler(PerformDescribeClass),
		"raise":          NewJSONHandler(PerformRaise),
	}
	for _, class := range skeleton.Catalog() {
		handlers[class.Conversion] = NewJSONHandler(func(ctx context.Context, req AttachRequestWire) AckResponse {
			return PerformAttach(ctx, sink, class, req)
		})
	}
	return handlers
}

// borrow resolves a lent reference and checks its type.
func borrow[T any](ctx context.Context, ref uint64, kind string) (T, *entities.ErrorDetail) {
	var zero T
	v, ok := foreign.BorrowID(ctx, ref)
	if !ok {
		return zero, entities.NewErrorDetail("contract_violation",
			fmt.Sprintf("reference %d is not lent to this call", ref)).WithCode("INVALID_REF")
	}
	t, ok := v.(T)
	if !ok {
		return zero, entities.NewErrorDetail("contract_violation",
			fmt.Sprintf("reference %d is %T, not %s", ref, v, kind)).WithCode("WRONG_REF_KIND")
	}
	return t, nil
}

// PerformInputBytes returns a copy of a lent input's bytes.
func PerformInputBytes(ctx context.Context, req RefRequest) InputBytesResponse {
	input, errDetail := borrow[ports.Input](ctx, req.Ref, "an input")
	if errDetail != nil {
		return InputBytesResponse{Error: errDetail}
	}
	return InputBytesResponse{Data: append([]byte(nil), input.Bytes()...)}
}

// PerformInputLen returns the length of a lent input.
func PerformInputLen(ctx context.Context, req RefRequest) InputLenResponse {
	input, errDetail := borrow[ports.Input](ctx, req.Ref, "an input")
	if errDetail != nil {
		return InputLenResponse{Error: errDetail}
	}
	return InputLenResponse{Len: len(input.Bytes())}
}

// PerformStateInfo summarizes a lent state.
func PerformStateInfo(ctx context.Context, req RefRequest) StateInfoResponse {
	state, errDetail := borrow[ports.State](ctx, req.Ref, "a state")
	if errDetail != nil {
		return StateInfoResponse{Error: errDetail}
	}
	return StateInfoResponse{Executions: state.Executions(), CorpusCount: state.CorpusCount()}
}

// PerformObserverNames lists the observers of a lent observers tuple.
func PerformObserverNames(ctx context.Context, req RefRequest) ObserverNamesResponse {
	observers, errDetail := borrow[ports.ObserversTuple](ctx, req.Ref, "an observers tuple")
	if errDetail != nil {
		return ObserverNamesResponse{Error: errDetail}
	}
	return ObserverNamesResponse{Names: observers.Names()}
}

// PerformSetMetadata attaches metadata to a lent testcase.
func PerformSetMetadata(ctx context.Context, req SetMetadataRequest) AckResponse {
	if req.Key == "" {
		return AckResponse{Error: entities.NewErrorDetail("validation", "metadata key is required")}
	}
	testcase, errDetail := borrow[ports.Testcase](ctx, req.Ref, "a testcase")
	if errDetail != nil {
		return AckResponse{Error: errDetail}
	}
	testcase.SetMetadata(req.Key, append([]byte(nil), req.Value...))
	return AckResponse{OK: true}
}

// PerformExitKinds lists the exit kinds in code order.
func PerformExitKinds(_ context.Context) ExitKindsResponse {
	kinds := entities.ExitKinds()
	resp := ExitKindsResponse{Kinds: make([]ExitKindInfo, len(kinds))}
	for i, k := range kinds {
		resp.Kinds[i] = ExitKindInfo{Tag: k.String(), Code: k.Code()}
	}
	return resp
}

// PerformDescribeClass describes one skeleton class, or all of them.
func PerformDescribeClass(_ context.Context, req DescribeClassRequest) DescribeClassResponse {
	if req.Name == "" {
		return DescribeClassResponse{Classes: skeleton.Catalog()}
	}
	class, err := skeleton.Lookup(req.Name)
	if err != nil {
		return DescribeClassResponse{Error: entities.NewErrorDetail("validation", err.Error()).WithCode("NOT_FOUND")}
	}
	return DescribeClassResponse{Classes: []skeleton.Class{class}}
}

// PerformRaise records a foreign exception for the current guest call.
// The exception takes effect when the guest method returns.
func PerformRaise(ctx context.Context, req RaiseRequest) AckResponse {
	if req.Type == "" {
		req.Type = "Exception"
	}
	if !foreign.RaiseIn(ctx, req.Type, req.Message) {
		return AckResponse{Error: entities.NewErrorDetail("internal", "raise called outside a foreign call")}
	}
	return AckResponse{OK: true}
}

// PerformAttach queues an attach request for the calling guest.
func PerformAttach(ctx context.Context, sink ports.AttachSink, class skeleton.Class, req AttachRequestWire) AckResponse {
	if sink == nil {
		return AckResponse{Error: notAvailable(class.Conversion)}
	}
	guest, ok := CallerFrom(ctx)
	if !ok {
		return AckResponse{Error: entities.NewErrorDetail("validation", class.Conversion+" called without a guest")}
	}
	if class.Callable && req.Export == "" {
		return AckResponse{Error: entities.NewErrorDetail("validation", class.Conversion+" requires an export")}
	}
	if len(req.Observers) > 0 && class.Capability != entities.CapabilityExecutor {
		return AckResponse{Error: entities.NewErrorDetail("validation", "only executors report observers")}
	}

	err := sink.RequestAttach(ctx, entities.AttachRequest{
		Guest:      guest,
		Capability: class.Capability,
		Export:     req.Export,
		Observers:  req.Observers,
		Callable:   class.Callable,
	})
	if err != nil {
		return AckResponse{Error: bridgeerrors.ToErrorDetail(err)}
	}
	return AckResponse{OK: true}
}

func notAvailable(what string) *entities.ErrorDetail {
	return NewNotAvailableError(what).Detail()
}
