package riskcase

import "context"

// CorpusRepository stores labeled case records in a relational warehouse.
// Only the "given a query, returns rows" contract matters to the rest of the
// system; training reads whatever the repository returns.
type CorpusRepository interface {
	SaveBatch(ctx context.Context, cases []CaseRecord) error
	LoadAll(ctx context.Context) ([]CaseRecord, error)
	Count(ctx context.Context) (int, error)
}
