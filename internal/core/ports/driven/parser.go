package driven

import (
	"context"
	"io"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// PartitionService extracts structured elements from a raw document.
// Backed by the Unstructured partition API; the service's internals are not
// specified here, only that its output adapts into the Element shape.
type PartitionService interface {
	// Partition uploads one document and returns its raw element records in
	// document order. The strategy selects text-layer, vision-assisted, or
	// automatic extraction.
	Partition(ctx context.Context, filename string, r io.Reader, strategy domain.PartitionStrategy) ([]domain.RawElement, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error
}
