// Package relation implements the client + memoized cache for the external
// study->dataset relation service (spec.md §6, §9).
package relation

import "context"

// Service is the narrow port the Normalizer's ID reconciliation pipeline
// depends on. It is mockable for tests, per SPEC_FULL.md's design notes.
type Service interface {
	// GetDatasetsFromStudy expands a JGAS study id into its member JGAD
	// dataset ids. Idempotent; may return an empty slice.
	GetDatasetsFromStudy(ctx context.Context, jgasID string) ([]string, error)
}
