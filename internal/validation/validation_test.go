package validation

import (
	"strings"
	"testing"

	"github.com/careercompass/compass/internal/schema"
)

// --- Field Rule Tests ---

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"non-empty passes", "hello", false},
		{"empty fails", "", true},
		{"whitespace-only fails", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired("field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnum_IsCaseSensitive(t *testing.T) {
	allowed := []string{"In Progress", "Completed"}

	if err := ValidateEnum("status", "In Progress", allowed); err != nil {
		t.Errorf("exact match rejected: %v", err)
	}
	if err := ValidateEnum("status", "in progress", allowed); err == nil {
		t.Error("lowercase variant accepted, want rejection")
	}
	if err := ValidateEnum("status", "Done", allowed); err == nil {
		t.Error("unknown value accepted, want rejection")
	}
}

func TestValidateEnum_ErrorNamesValueAndAllowedSet(t *testing.T) {
	err := ValidateEnum("status", "Done", []string{"In Progress", "Completed"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Message, `"Done"`) {
		t.Errorf("message %q should contain the offending value", err.Message)
	}
	if !strings.Contains(err.Message, "In Progress, Completed") {
		t.Errorf("message %q should list allowed values", err.Message)
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid date", "2026-08-28", false},
		{"empty passes", "", false},
		{"wrong format", "08/28/2026", true},
		{"missing zero padding", "2026-8-28", true},
		{"not a date", "yesterday", true},
		{"impossible day", "2026-02-30", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate("date", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePercent(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"integer", "50", false},
		{"decimal", "12.5", false},
		{"zero", "0", false},
		{"hundred", "100", false},
		{"empty passes", "", false},
		{"negative", "-1", true},
		{"over range", "100.1", true},
		{"not numeric", "half", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePercent("weightpercent", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePercent(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMaxLength(t *testing.T) {
	if err := ValidateMaxLength("text", strings.Repeat("a", 1000), 1000); err != nil {
		t.Errorf("at-limit value rejected: %v", err)
	}
	if err := ValidateMaxLength("text", strings.Repeat("a", 1001), 1000); err == nil {
		t.Error("over-limit value accepted")
	}
	// Multi-byte runes count as one character each.
	if err := ValidateMaxLength("text", strings.Repeat("é", 1000), 1000); err != nil {
		t.Errorf("multi-byte at-limit value rejected: %v", err)
	}
}

// --- Collector Tests ---

func TestCollector_AccumulatesErrors(t *testing.T) {
	var c Collector
	if c.HasErrors() {
		t.Error("new collector should have no errors")
	}

	c.Add(nil)
	if c.HasErrors() {
		t.Error("adding nil should not record an error")
	}

	c.Add(&ValidationError{Field: "a", Message: "is required"})
	c.Add(&ValidationError{Field: "b", Message: "is required"})
	if len(c.Errors()) != 2 {
		t.Errorf("len(Errors()) = %d, want 2", len(c.Errors()))
	}
}

// --- Record Tests ---

func TestRecord_CollectsAllFailures(t *testing.T) {
	rec := map[string]string{
		"timestamp": "2026-08-28T10:00:00Z",
		"date":      "not-a-date",
		"type":      "celebration",
		"text":      "did things",
	}

	errs, _ := Record(schema.WorkLogEntry, rec, ModeWrite)
	if len(errs) != 2 {
		t.Fatalf("len(errs) = %d, want 2: %v", len(errs), errs)
	}

	fields := []string{errs[0].Field, errs[1].Field}
	for _, want := range []string{"date", "type"} {
		found := false
		for _, f := range fields {
			if f == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected an error for field %q, got %v", want, fields)
		}
	}
}

func TestRecord_ValidPasses(t *testing.T) {
	rec := map[string]string{
		"timestamp": "2026-08-28T10:00:00Z",
		"date":      "2026-08-28",
		"type":      "accomplishment",
		"text":      "Shipped the importer",
		"source":    "api",
	}

	errs, warnings := Record(schema.WorkLogEntry, rec, ModeWrite)
	if len(errs) != 0 {
		t.Errorf("errs = %v, want none", errs)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestRecord_OneOfWriteRequiresExactlyOne(t *testing.T) {
	base := map[string]string{
		"entrytimestamp": "2026-08-28T10:00:00Z",
		"entrydate":      "2026-08-28",
	}

	tests := []struct {
		name    string
		goal    string
		comp    string
		wantErr bool
	}{
		{"goal only", "G1", "", false},
		{"competency only", "", "C1", false},
		{"neither", "", "", true},
		{"both", "G1", "C1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := map[string]string{"goalid": tt.goal, "competencyid": tt.comp}
			for k, v := range base {
				rec[k] = v
			}
			errs, _ := Record(schema.GoalMapping, rec, ModeWrite)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("errs = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestRecord_OneOfReadToleratesBothWithWarning(t *testing.T) {
	rec := map[string]string{
		"entrytimestamp": "2026-08-28T10:00:00Z",
		"entrydate":      "2026-08-28",
		"goalid":         "G1",
		"competencyid":   "C1",
	}

	errs, warnings := Record(schema.GoalMapping, rec, ModeRead)
	if len(errs) != 0 {
		t.Errorf("errs = %v, want none on read", errs)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0].Message, "legacy") {
		t.Errorf("warning %q should mark the row as legacy", warnings[0].Message)
	}
}

func TestRecord_OneOfReadStillRejectsNeither(t *testing.T) {
	rec := map[string]string{
		"entrytimestamp": "2026-08-28T10:00:00Z",
		"entrydate":      "2026-08-28",
	}

	errs, _ := Record(schema.GoalMapping, rec, ModeRead)
	if len(errs) == 0 {
		t.Error("a mapping row pointing at nothing should fail on read too")
	}
}

func TestRecord_RequiredFailureSkipsContentRules(t *testing.T) {
	// An empty required enum column reports "is required", not an enum error.
	rec := map[string]string{
		"timestamp": "2026-08-28T10:00:00Z",
		"date":      "2026-08-28",
		"type":      "",
		"text":      "x",
	}

	errs, _ := Record(schema.WorkLogEntry, rec, ModeWrite)
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1: %v", len(errs), errs)
	}
	if errs[0].Message != "is required" {
		t.Errorf("message = %q, want %q", errs[0].Message, "is required")
	}
}
