package content

import "context"

// Query describes the hard filters for a candidate fetch. All filters
// are conjunctive; an empty pool is a normal result, not an error.
type Query struct {
	Type         Type
	Rating       Rating
	IntensityMin int
	IntensityMax int

	// AudienceScopes restricts items to the given scopes ("couples",
	// "groups", "all"). Empty means no scope filter.
	AudienceScopes []string

	// ExcludeIDs are item ids already seen in this session.
	ExcludeIDs map[string]bool

	// AnatomyAvailable are the body-part tags present among this turn's
	// participants; items requiring anything else are filtered out.
	AnatomyAvailable map[string]bool

	// HardLimits is the combined hard-limit set; items declaring any of
	// these boundary tags are filtered out.
	HardLimits map[string]bool

	Limit int
}

// Store abstracts the activity bank. Implementations can be swapped for
// testing (in-memory) or different backends.
type Store interface {
	// FindCandidates returns up to q.Limit active approved items
	// matching the hard filters, in randomized order.
	FindCandidates(ctx context.Context, q Query) ([]*Item, error)
}
