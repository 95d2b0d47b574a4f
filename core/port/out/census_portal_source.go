package out

import (
	"context"

	"census_server/core/domain"
)

// =============================================================================
// PortalSource / ResultSink (CSV batch I/O)
// =============================================================================

// PortalSource supplies the portals to be processed in a batch run.
type PortalSource interface {
	// Load reads all input rows. Rows without a URL are skipped.
	Load(ctx context.Context) ([]domain.Portal, error)
}

// ResultSink receives finished portals. Write may be called repeatedly with
// the accumulated results so long runs survive interruption; Flush is called
// once at the end.
type ResultSink interface {
	Write(ctx context.Context, portals []domain.Portal) error
	Flush(ctx context.Context) error
}
