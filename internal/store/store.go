// Package store is the adapter's public surface: one append/list pair per
// entity, composed from the schema registry, the validator, the sheet
// initializer, and the remote gateway. Callers hand it string-keyed records
// and never see rows, headers, or HTTP.
package store

import "context"

// Record is a string-to-string field mapping. Keys are the canonical column
// keys from the schema registry; the codec also accepts each column's aliases
// on the write path.
type Record = map[string]string

// Gateway is the remote tabular API surface the store depends on.
// *sheets.Client satisfies it; tests use an in-memory fake.
type Gateway interface {
	SheetTitles(ctx context.Context) ([]string, error)
	CreateSheet(ctx context.Context, title string) error
	ReadRange(ctx context.Context, rangeRef string) ([][]string, error)
	WriteRange(ctx context.Context, rangeRef string, values [][]string) error
	AppendRow(ctx context.Context, rangeRef string, row []string) (int, error)
}

// Store defines the repository contract for all entities. Every method is an
// append or a full-sheet read; there are no updates or deletes. Logical
// updates append a new row and reads resolve them with latest-wins or
// aggregation folds.
type Store interface {
	AppendEntry(ctx context.Context, rec Record) error
	ListEntries(ctx context.Context) ([]Record, error)
	EntriesByDateRange(ctx context.Context, start, end string) ([]Record, error)

	AppendGoal(ctx context.Context, rec Record) error
	ListGoals(ctx context.Context) ([]Record, error)
	CurrentGoals(ctx context.Context) ([]Record, error)

	AppendMilestone(ctx context.Context, rec Record) error
	ListMilestones(ctx context.Context) ([]Record, error)
	MilestoneRollups(ctx context.Context) (map[string]Rollup, error)

	AppendCompetency(ctx context.Context, rec Record) error
	ListCompetencies(ctx context.Context) ([]Record, error)

	AppendMapping(ctx context.Context, rec Record) error
	ListMappings(ctx context.Context) ([]Record, error)

	AppendGoalReview(ctx context.Context, rec Record) error
	ListGoalReviews(ctx context.Context) ([]Record, error)

	AppendGoalEvaluation(ctx context.Context, rec Record) error
	ListGoalEvaluations(ctx context.Context) ([]Record, error)

	AppendCompetencyEvaluation(ctx context.Context, rec Record) error
	ListCompetencyEvaluations(ctx context.Context) ([]Record, error)

	AppendReminderSetting(ctx context.Context, rec Record) error
	ListReminderSettings(ctx context.Context) ([]Record, error)
}
