package driven

import (
	"context"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// Connector fetches documents from a data source. Each connector type
// (github, gdrive, upload) implements this interface.
type Connector interface {
	// Type returns the connector's source tag ("github", "gdrive", ...).
	Type() string

	// Validate checks the connector is properly configured and
	// authenticated. For API connectors this makes a test API call;
	// for local uploads it checks the path is readable.
	Validate(ctx context.Context) error

	// Fetch streams documents from the source. Per-document failures go
	// on the error channel; the stream continues with the next document.
	// Both channels are closed when the fetch completes.
	Fetch(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Close releases resources.
	Close() error
}
