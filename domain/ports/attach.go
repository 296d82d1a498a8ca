package ports

import (
	"context"

	"github.com/reglet-dev/fuzzbridge/domain/entities"
)

// AttachSink collects attach requests made by guests through the libafl
// namespace. Requests arrive while the guest runs, so the sink records them
// and the session builds the components once the guest returned.
type AttachSink interface {
	RequestAttach(ctx context.Context, req entities.AttachRequest) error
}
