// Package schema holds the per-entity sheet definitions: column order, required
// fields, enum sets, and format rules. The remote spreadsheet has no schema of
// its own, so these tables are the single source of truth for what each tab
// must look like. Adding an entity means adding a table here; the codec,
// validator, and store never special-case individual entities.
package schema

import "strings"

// Kind classifies how a column's content is validated.
type Kind int

const (
	// KindText is free text with an optional maximum length.
	KindText Kind = iota
	// KindDate is a strict YYYY-MM-DD date; empty allowed unless required.
	KindDate
	// KindPercent is a number in [0,100]; empty allowed, round-tripped as written.
	KindPercent
)

// Column describes a single sheet column.
type Column struct {
	// Header is the exact cell text expected in the sheet's header row.
	Header string
	// Key is the canonical record key callers use for this column.
	Key string
	// Aliases are accepted alternative record keys, resolved in order after Key.
	Aliases []string
	// Required marks columns that must be non-empty.
	Required bool
	// Enum restricts the value to an exact, case-sensitive set.
	Enum []string
	// Kind selects content validation.
	Kind Kind
	// Default fills the cell when the record omits the column.
	Default string
	// DefaultToday fills the column with today's date on write when absent.
	DefaultToday bool
	// MaxLen caps the value length in runes (0 = unlimited).
	MaxLen int
}

// Entity describes one sheet-backed record type.
type Entity struct {
	// Name identifies the entity in errors and logs.
	Name string
	// Sheet is the tab name in the spreadsheet.
	Sheet string
	// Columns is the ordered column list; Columns[i].Header is header cell i.
	Columns []Column
	// CreateMissing allows the initializer to create the sheet on first use.
	// Operator-curated sheets (Goals, Competencies) must be provisioned out of
	// band and fail instead.
	CreateMissing bool
	// RewriteHeader allows the initializer to overwrite a drifted header row.
	// Only the free-form entry log may evolve this way.
	RewriteHeader bool
	// OneOf names two keys of which exactly one must be populated on write.
	// Zero value means no such constraint.
	OneOf [2]string
}

// Goal status values, shared by goals and milestones.
var GoalStatuses = []string{"Not Started", "In Progress", "Blocked", "Completed", "Deferred"}

// Lifecycle status values for the goal event log.
var LifecycleStatuses = []string{"Active", "Archived", "Superseded", "Updated"}

// Entry types accepted in the work log.
var EntryTypes = []string{"accomplishment", "task", "idea"}

// MaxEntryLength caps work-log entry text.
const MaxEntryLength = 1000

// WorkLogEntry is the append-only free-form log ("Accomplishments" tab).
var WorkLogEntry = Entity{
	Name:          "WorkLogEntry",
	Sheet:         "Accomplishments",
	CreateMissing: true,
	RewriteHeader: true,
	Columns: []Column{
		{Header: "Timestamp", Key: "timestamp", Aliases: []string{"time"}, Required: true},
		{Header: "Date", Key: "date", Required: true, Kind: KindDate},
		{Header: "Type", Key: "type", Aliases: []string{"entrytype"}, Required: true, Enum: EntryTypes},
		{Header: "Text", Key: "text", Aliases: []string{"entry", "message"}, Required: true, MaxLen: MaxEntryLength},
		{Header: "Tags", Key: "tags"},
		{Header: "Source", Key: "source", Default: "api"},
	},
}

// Goal rows form an append-only event log; the latest row per goal id wins.
var Goal = Entity{
	Name:  "Goal",
	Sheet: "Goals",
	Columns: []Column{
		{Header: "Goal ID", Key: "goalid", Aliases: []string{"goal_id", "goal", "id"}, Required: true},
		{Header: "Title", Key: "title", Aliases: []string{"name"}, Required: true},
		{Header: "Description", Key: "description", Aliases: []string{"desc"}},
		{Header: "Weight %", Key: "weightpercent", Aliases: []string{"weight_percent", "weight"}, Kind: KindPercent},
		{Header: "Status", Key: "status", Required: true, Enum: GoalStatuses},
		{Header: "Completion %", Key: "completionpercent", Aliases: []string{"completion_percent", "completion"}, Kind: KindPercent},
		{Header: "Start Date", Key: "startdate", Aliases: []string{"start_date", "start"}, Kind: KindDate},
		{Header: "End Date", Key: "enddate", Aliases: []string{"end_date", "end"}, Kind: KindDate},
		{Header: "Target Date", Key: "targetdate", Aliases: []string{"target_date", "target"}, Kind: KindDate},
		{Header: "Owner", Key: "owner"},
		{Header: "Notes", Key: "notes"},
		{Header: "Lifecycle Status", Key: "lifecyclestatus", Aliases: []string{"lifecycle_status", "lifecycle"}, Enum: LifecycleStatuses, Default: "Active"},
		{Header: "Superseded By", Key: "supersededby", Aliases: []string{"superseded_by"}},
		{Header: "Last Modified", Key: "lastmodified", Aliases: []string{"last_modified"}},
		{Header: "Archived", Key: "archived"},
		{Header: "History", Key: "history"},
	},
}

// GoalMilestone rows accumulate per goal; completion appends a Completed row.
var GoalMilestone = Entity{
	Name:          "GoalMilestone",
	Sheet:         "GoalMilestones",
	CreateMissing: true,
	Columns: []Column{
		{Header: "Goal ID", Key: "goalid", Aliases: []string{"goal_id", "goal"}, Required: true},
		{Header: "Milestone", Key: "milestone", Aliases: []string{"title", "name"}, Required: true},
		{Header: "Target Date", Key: "targetdate", Aliases: []string{"target_date", "target"}, Kind: KindDate},
		{Header: "Completion Date", Key: "completiondate", Aliases: []string{"completion_date", "completed"}, Kind: KindDate},
		{Header: "Status", Key: "status", Required: true, Enum: GoalStatuses, Default: "Not Started"},
		{Header: "Notes", Key: "notes"},
	},
}

// Competency is operator-curated reference data.
var Competency = Entity{
	Name:  "Competency",
	Sheet: "Competencies",
	Columns: []Column{
		{Header: "Competency ID", Key: "competencyid", Aliases: []string{"competency_id", "comp", "id"}, Required: true},
		{Header: "Name", Key: "name", Aliases: []string{"title"}, Required: true},
		{Header: "Category", Key: "category"},
		{Header: "Status", Key: "status", Enum: []string{"Active", "Inactive"}, Default: "Active"},
		{Header: "Description", Key: "description", Aliases: []string{"desc"}},
	},
}

// GoalMapping links a work-log entry to a goal or a competency; exactly one of
// the two foreign keys is populated on write.
var GoalMapping = Entity{
	Name:          "GoalMapping",
	Sheet:         "GoalMappings",
	CreateMissing: true,
	OneOf:         [2]string{"goalid", "competencyid"},
	Columns: []Column{
		{Header: "Entry Timestamp", Key: "entrytimestamp", Aliases: []string{"entry_timestamp", "timestamp"}, Required: true},
		{Header: "Entry Date", Key: "entrydate", Aliases: []string{"entry_date", "date"}, Required: true, Kind: KindDate},
		{Header: "Goal ID", Key: "goalid", Aliases: []string{"goal_id", "goal"}},
		{Header: "Competency ID", Key: "competencyid", Aliases: []string{"competency_id", "comp"}},
		{Header: "Notes", Key: "notes"},
	},
}

// GoalReview captures mid-cycle review notes for a goal.
var GoalReview = Entity{
	Name:          "GoalReview",
	Sheet:         "GoalReviews",
	CreateMissing: true,
	Columns: []Column{
		{Header: "Goal ID", Key: "goalid", Aliases: []string{"goal_id", "goal"}, Required: true},
		{Header: "Review Type", Key: "reviewtype", Aliases: []string{"review_type", "type"}, Default: "midyear"},
		{Header: "Rating", Key: "rating"},
		{Header: "Notes", Key: "notes"},
		{Header: "Review Date", Key: "reviewdate", Aliases: []string{"review_date", "date"}, Required: true, Kind: KindDate, DefaultToday: true},
	},
}

// GoalEvaluation captures year-end evaluation entries for a goal.
var GoalEvaluation = Entity{
	Name:          "GoalEvaluation",
	Sheet:         "GoalEvaluations",
	CreateMissing: true,
	Columns: []Column{
		{Header: "Goal ID", Key: "goalid", Aliases: []string{"goal_id", "goal"}, Required: true},
		{Header: "Evaluation Type", Key: "evaluationtype", Aliases: []string{"evaluation_type", "type"}, Default: "yearend"},
		{Header: "Rating", Key: "rating"},
		{Header: "Notes", Key: "notes"},
		{Header: "Evaluated On", Key: "evaluatedon", Aliases: []string{"evaluated_on", "date"}, Required: true, Kind: KindDate, DefaultToday: true},
	},
}

// CompetencyEvaluation captures evaluation entries for a competency.
var CompetencyEvaluation = Entity{
	Name:          "CompetencyEvaluation",
	Sheet:         "CompetencyEvaluations",
	CreateMissing: true,
	Columns: []Column{
		{Header: "Competency ID", Key: "competencyid", Aliases: []string{"competency_id", "comp"}, Required: true},
		{Header: "Evaluation Type", Key: "evaluationtype", Aliases: []string{"evaluation_type", "type"}, Default: "competency"},
		{Header: "Rating", Key: "rating"},
		{Header: "Notes", Key: "notes"},
		{Header: "Evaluated On", Key: "evaluatedon", Aliases: []string{"evaluated_on", "date"}, Required: true, Kind: KindDate, DefaultToday: true},
	},
}

// ReminderSetting configures proactive reminder delivery.
var ReminderSetting = Entity{
	Name:          "ReminderSetting",
	Sheet:         "ReminderSettings",
	CreateMissing: true,
	Columns: []Column{
		{Header: "Category", Key: "category", Required: true, Enum: []string{"milestone", "review"}},
		{Header: "Target ID", Key: "targetid", Aliases: []string{"target_id", "target"}},
		{Header: "Frequency", Key: "frequency", Default: "weekly"},
		{Header: "Enabled", Key: "enabled", Enum: []string{"true", "false"}, Default: "true"},
		{Header: "Channel", Key: "channel"},
		{Header: "Notes", Key: "notes"},
	},
}

// All lists every entity, in backup/export order.
var All = []Entity{
	WorkLogEntry,
	Goal,
	GoalMilestone,
	Competency,
	GoalMapping,
	GoalReview,
	GoalEvaluation,
	CompetencyEvaluation,
	ReminderSetting,
}

// Headers returns the expected header row cells in order.
func (e Entity) Headers() []string {
	headers := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		headers[i] = c.Header
	}
	return headers
}

// Range returns the A1 range covering all of the entity's columns,
// e.g. "Goals!A:P".
func (e Entity) Range() string {
	return e.Sheet + "!A:" + columnLetter(len(e.Columns))
}

// HeaderRange returns the A1 range of the header row, e.g. "Goals!A1:P1".
func (e Entity) HeaderRange() string {
	return e.Sheet + "!A1:" + columnLetter(len(e.Columns)) + "1"
}

// Column returns the column with the given canonical key.
func (e Entity) Column(key string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// NormalizeHeader converts a header cell into its canonical record key:
// lowercased, spaces removed, "%" spelled out. "Weight %" -> "weightpercent".
func NormalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.ReplaceAll(s, "%", "percent")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// columnLetter converts a 1-based column count to its sheet letter.
// Entities here never exceed 26 columns.
func columnLetter(n int) string {
	return string(rune('A' + n - 1))
}
