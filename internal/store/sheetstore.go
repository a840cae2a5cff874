package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/careercompass/compass/internal/schema"
	"github.com/careercompass/compass/internal/validation"
)

// DefaultMaxConcurrent bounds in-flight remote calls when no limit is given.
const DefaultMaxConcurrent = 4

// SheetStore implements Store against the remote spreadsheet gateway.
//
// The ready set is the only shared mutable state: once a sheet passes its
// existence and header checks it stays "ready" for the life of the process.
// An operator who damages a header mid-run must restart the process to
// re-trigger the check.
type SheetStore struct {
	gw  Gateway
	now func() time.Time

	mu    sync.Mutex
	ready map[string]struct{}

	// sem bounds concurrent remote calls; every gateway touch goes through it.
	sem chan struct{}
}

// Compile-time interface check
var _ Store = (*SheetStore)(nil)

// New creates a SheetStore over the given gateway. maxConcurrent bounds
// simultaneous remote calls; values < 1 fall back to DefaultMaxConcurrent.
func New(gw Gateway, maxConcurrent int) *SheetStore {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &SheetStore{
		gw:    gw,
		now:   time.Now,
		ready: make(map[string]struct{}),
		sem:   make(chan struct{}, maxConcurrent),
	}
}

// --- Work-log entries ---

func (s *SheetStore) AppendEntry(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.WorkLogEntry, rec)
}

func (s *SheetStore) ListEntries(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.WorkLogEntry)
}

// EntriesByDateRange returns entries whose Date column lies in [start, end],
// both inclusive, both YYYY-MM-DD. Dates in that format compare correctly as
// strings.
func (s *SheetStore) EntriesByDateRange(ctx context.Context, start, end string) ([]Record, error) {
	entries, err := s.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []Record
	for _, e := range entries {
		if d := e["date"]; d >= start && d <= end {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// --- Goals ---

func (s *SheetStore) AppendGoal(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.Goal, rec)
}

func (s *SheetStore) ListGoals(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.Goal)
}

// CurrentGoals folds the goal event log down to each goal's latest row.
// Row order is the event order, so the last row per goal id wins.
func (s *SheetStore) CurrentGoals(ctx context.Context) ([]Record, error) {
	goals, err := s.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	return latestByKey(goals, "goalid"), nil
}

// --- Milestones ---

func (s *SheetStore) AppendMilestone(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.GoalMilestone, rec)
}

func (s *SheetStore) ListMilestones(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.GoalMilestone)
}

func (s *SheetStore) MilestoneRollups(ctx context.Context) (map[string]Rollup, error) {
	milestones, err := s.ListMilestones(ctx)
	if err != nil {
		return nil, err
	}
	return RollupMilestones(milestones), nil
}

// --- Competencies ---

func (s *SheetStore) AppendCompetency(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.Competency, rec)
}

func (s *SheetStore) ListCompetencies(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.Competency)
}

// --- Mappings ---

func (s *SheetStore) AppendMapping(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.GoalMapping, rec)
}

func (s *SheetStore) ListMappings(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.GoalMapping)
}

// --- Reviews and evaluations ---

func (s *SheetStore) AppendGoalReview(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.GoalReview, rec)
}

func (s *SheetStore) ListGoalReviews(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.GoalReview)
}

func (s *SheetStore) AppendGoalEvaluation(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.GoalEvaluation, rec)
}

func (s *SheetStore) ListGoalEvaluations(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.GoalEvaluation)
}

func (s *SheetStore) AppendCompetencyEvaluation(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.CompetencyEvaluation, rec)
}

func (s *SheetStore) ListCompetencyEvaluations(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.CompetencyEvaluation)
}

// --- Reminder settings ---

func (s *SheetStore) AppendReminderSetting(ctx context.Context, rec Record) error {
	return s.append(ctx, schema.ReminderSetting, rec)
}

func (s *SheetStore) ListReminderSettings(ctx context.Context) ([]Record, error) {
	return s.list(ctx, schema.ReminderSetting)
}

// --- Core append / list paths ---

// append validates, ensures the sheet is ready, encodes, and appends. The
// validator runs before any network call so a bad record costs nothing
// remote.
func (s *SheetStore) append(ctx context.Context, e schema.Entity, rec Record) error {
	normalized := s.applyDefaults(e, rec)

	if errs, _ := validation.Record(e, normalized, validation.ModeWrite); len(errs) > 0 {
		return &RecordError{Sheet: e.Sheet, Row: 0, Errors: errs}
	}

	if err := s.ensureReady(ctx, e); err != nil {
		return err
	}

	row := schema.Encode(e, normalized)
	var written int
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		written, err = s.gw.AppendRow(ctx, e.Range(), row)
		return err
	})
	if err != nil {
		return fmt.Errorf("append to %s: %w", e.Sheet, err)
	}
	if written < 1 {
		return fmt.Errorf("append to %s: %w", e.Sheet, ErrAppendNoEffect)
	}

	slog.Info("record appended",
		"component", "store",
		"sheet", e.Sheet,
	)
	return nil
}

// list reads the full sheet and decodes + validates every data row. The first
// structurally invalid row aborts the read with its sheet row number; data is
// never silently dropped.
func (s *SheetStore) list(ctx context.Context, e schema.Entity) ([]Record, error) {
	if err := s.ensureReady(ctx, e); err != nil {
		return nil, err
	}

	var rows [][]string
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.gw.ReadRange(ctx, e.Range())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		rec := schema.Decode(e, raw, header)
		errs, warnings := validation.Record(e, rec, validation.ModeRead)
		sheetRow := i + 2 // 1-based, header occupies row 1
		for _, w := range warnings {
			slog.Warn("tolerated legacy row",
				"component", "store",
				"sheet", e.Sheet,
				"row", sheetRow,
				"field", w.Field,
				"detail", w.Message,
			)
		}
		if len(errs) > 0 {
			return nil, &RecordError{Sheet: e.Sheet, Row: sheetRow, Errors: errs}
		}
		records = append(records, rec)
	}
	return records, nil
}

// applyDefaults returns a canonical-key copy of the record with column
// defaults filled in, including "today" for date columns that default to the
// current date on write.
func (s *SheetStore) applyDefaults(e schema.Entity, rec Record) Record {
	out := make(Record, len(e.Columns))
	for _, col := range e.Columns {
		value := rec[col.Key]
		if value == "" {
			for _, alias := range col.Aliases {
				if v := rec[alias]; v != "" {
					value = v
					break
				}
			}
		}
		if value == "" {
			value = col.Default
		}
		if value == "" && col.DefaultToday {
			value = s.now().UTC().Format(time.DateOnly)
		}
		out[col.Key] = value
	}
	return out
}

// ensureReady runs the per-sheet initialization state machine once per
// process: check existence (create when allowed), verify the header row
// (rewrite when allowed), then memoize. The mutex covers the whole sequence
// so concurrent first-time callers cannot both create the same sheet.
func (s *SheetStore) ensureReady(ctx context.Context, e schema.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ready[e.Sheet]; ok {
		return nil
	}

	titles, err := s.gw.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("fetch sheet metadata: %w", err)
	}

	created := false
	if !contains(titles, e.Sheet) {
		if !e.CreateMissing {
			return fmt.Errorf("sheet %q: %w", e.Sheet, ErrSheetMissing)
		}
		if err := s.gw.CreateSheet(ctx, e.Sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", e.Sheet, err)
		}
		created = true
		slog.Info("sheet created",
			"component", "store",
			"sheet", e.Sheet,
		)
	}

	headerOK := false
	if !created {
		rows, err := s.gw.ReadRange(ctx, e.HeaderRange())
		if err != nil {
			return fmt.Errorf("read header of %q: %w", e.Sheet, err)
		}
		headerOK = len(rows) > 0 && equalHeader(rows[0], e.Headers())
	}

	if !headerOK {
		if !created && !e.RewriteHeader {
			return fmt.Errorf("sheet %q: %w", e.Sheet, ErrHeaderMismatch)
		}
		if err := s.gw.WriteRange(ctx, e.HeaderRange(), [][]string{e.Headers()}); err != nil {
			return fmt.Errorf("write header of %q: %w", e.Sheet, err)
		}
		slog.Info("sheet header written",
			"component", "store",
			"sheet", e.Sheet,
		)
	}

	s.ready[e.Sheet] = struct{}{}
	return nil
}

// call runs a gateway operation under the concurrency gate. The repository's
// callers are request handlers; the gate keeps a burst of them from stacking
// unbounded blocking calls against the rate-limited remote API.
func (s *SheetStore) call(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()
	return fn(ctx)
}

// latestByKey keeps the last-seen record per key value, preserving first-seen
// order of the keys.
func latestByKey(records []Record, key string) []Record {
	index := make(map[string]int)
	var out []Record
	for _, rec := range records {
		id := rec[key]
		if pos, ok := index[id]; ok {
			out[pos] = rec
			continue
		}
		index[id] = len(out)
		out = append(out, rec)
	}
	return out
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
