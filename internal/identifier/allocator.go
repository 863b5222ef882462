package identifier

import (
	"context"
	"errors"

	"assetledger/internal/catalog"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/requestcontext"
)

// Allocator produces ordered runs of asset identifiers. It owns the date
// stamping and the translation from category code to prefix; the underlying
// SequenceStore owns atomicity.
type Allocator struct {
	catalog   *catalog.Catalog
	sequences SequenceStore
}

// NewAllocator wires an allocator.
func NewAllocator(cat *catalog.Catalog, sequences SequenceStore) *Allocator {
	return &Allocator{catalog: cat, sequences: sequences}
}

// Allocate returns count consecutive identifiers for the category, stamped
// with the current date. The whole run succeeds or nothing is allocated.
//
// Errors:
//   - CodeInvalidInput for unknown categories or non-positive counts
//   - CodeExhaustedSequence when the four digit counter would overflow;
//     callers split across days or escalate, never silently truncate
func (a *Allocator) Allocate(ctx context.Context, categoryCode string, count int) ([]domain.AssetID, error) {
	if count < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "count must be at least 1")
	}
	cat, err := a.catalog.Get(categoryCode)
	if err != nil {
		return nil, err
	}

	key := Key{Prefix: cat.Prefix, DateStamp: requestcontext.Now(ctx).Format("20060102")}
	first, err := a.sequences.NextRange(ctx, key, count, domain.MaxSequence)
	if err != nil {
		if errors.Is(err, ErrExhausted) {
			return nil, dErrors.Wrap(err, dErrors.CodeExhaustedSequence,
				"daily sequence exhausted for "+cat.Prefix)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "allocate sequence range")
	}

	ids := make([]domain.AssetID, count)
	for i := 0; i < count; i++ {
		ids[i] = domain.ComposeAssetID(cat.Prefix, key.DateStamp, first+i)
	}
	return ids, nil
}
