package store

import "fmt"

// Rollup aggregates milestone rows for one goal: completed vs. total counts
// and the latest completion date among completed milestones.
type Rollup struct {
	GoalID           string
	Done             int
	Total            int
	LatestCompletion string
}

// String renders the operator-facing progress summary, e.g.
// "2/3 done (latest 2024-09-01)".
func (r Rollup) String() string {
	if r.LatestCompletion == "" {
		return fmt.Sprintf("%d/%d done", r.Done, r.Total)
	}
	return fmt.Sprintf("%d/%d done (latest %s)", r.Done, r.Total, r.LatestCompletion)
}

// RollupMilestones folds milestone records into per-goal rollups. It is a
// pure in-memory aggregation over a full list read, not a storage primitive.
// Completion dates are YYYY-MM-DD, so the lexicographically greatest is the
// latest.
func RollupMilestones(milestones []Record) map[string]Rollup {
	rollups := make(map[string]Rollup)
	for _, m := range milestones {
		goalID := m["goalid"]
		if goalID == "" {
			continue
		}
		r := rollups[goalID]
		r.GoalID = goalID
		r.Total++
		if m["status"] == "Completed" {
			r.Done++
			if d := m["completiondate"]; d > r.LatestCompletion {
				r.LatestCompletion = d
			}
		}
		rollups[goalID] = r
	}
	return rollups
}
