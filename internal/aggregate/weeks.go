// Package aggregate reconciles the weekly schedule table with the
// loosely-correlated per-week detail tables, attaches markdown fragments to
// rows by stem matching, and assembles the final rendering context. It is a
// pure in-memory pass over already-loaded sources: every failure mode
// degrades to an empty or default value with a diagnostic, never an abort.
package aggregate

import (
	"strings"

	"go.uber.org/zap"

	"canversion/internal/fragment"
	"canversion/internal/table"
)

// CanonicalWeekColumn is the join key every participating table is
// normalized to. Source tables spell it inconsistently; see
// WeekColumnCandidates.
const CanonicalWeekColumn = "week_number"

// WeekColumnCandidates is the prioritized list of accepted week-identifier
// column spellings. Matching is case- and whitespace-insensitive; the first
// candidate with a match wins.
var WeekColumnCandidates = []string{"week_number", "Week", "week", "Week Number"}

// detailFields are the reserved week-record fields fed by detail tables,
// in join order.
var detailFields = []string{"keywords", "learning_outcomes", "brain_candy", "discussion_questions"}

// ensuredFields are reserved fields guaranteed present as string sequences
// on every week record, whether or not a detail table contributed data.
// other_readings has no detail source yet but templates already iterate it.
var ensuredFields = []string{"keywords", "learning_outcomes", "brain_candy", "discussion_questions", "other_readings"}

// Detail pairs a reserved field name with the table that feeds it.
type Detail struct {
	Field string
	Table table.Table
}

// Processor runs one aggregation pass. It holds no state between runs;
// each invocation is a pure function of its inputs.
type Processor struct {
	log *zap.Logger
}

// NewProcessor returns a Processor logging through log.
func NewProcessor(log *zap.Logger) *Processor {
	return &Processor{log: log}
}

// Weeks merges the detail tables into the schedule and returns one record
// per schedule row, in schedule order. Duplicate week keys in the schedule
// are preserved and independently joined, as in a left join. Every record
// carries the reserved fields as []string and topic_summary_md as string
// or nil.
func (p *Processor) Weeks(schedule table.Table, details []Detail, topics *fragment.Index) []map[string]any {
	if topics == nil {
		topics = fragment.New()
	}
	records := make([]map[string]any, 0, schedule.Len())
	if schedule.Empty() {
		if schedule.Columns == nil {
			p.log.Warn("weekly schedule not loaded, no weekly data to process")
		} else {
			p.log.Info("weekly schedule is empty, no weekly data to process")
		}
		return records
	}

	sched := schedule.Clone()
	weekCol, resolved := table.ResolveColumn(sched.Columns, WeekColumnCandidates)

	// field -> week key -> ordered values
	grouped := make(map[string]map[string][]string)

	if !resolved {
		p.log.Warn("no week identifier column in weekly schedule, proceeding in degraded mode",
			zap.Strings("columns", sched.Columns))
	} else {
		sched.RenameColumn(weekCol, CanonicalWeekColumn)
		trimColumn(&sched, CanonicalWeekColumn)

		for _, d := range details {
			if d.Table.Empty() {
				continue
			}
			g, ok := p.groupDetail(d)
			if ok {
				grouped[d.Field] = g
			}
		}
	}

	for _, row := range sched.Rows {
		rec := make(map[string]any, len(row)+len(ensuredFields)+1)
		for k, v := range row {
			rec[k] = v
		}
		weekKey := row[CanonicalWeekColumn]

		for _, field := range ensuredFields {
			if g, joined := grouped[field]; joined {
				if vals, ok := g[weekKey]; ok {
					rec[field] = append([]string(nil), vals...)
				} else {
					rec[field] = []string{}
				}
				continue
			}
			// No detail table contributed. A schedule column sharing the
			// reserved name is coerced: scalar to one-element sequence,
			// blank or absent to empty sequence.
			if v, ok := row[field]; ok && v != "" {
				rec[field] = []string{v}
			} else {
				rec[field] = []string{}
			}
		}

		rec["topic_summary_md"] = p.topicSummary(weekKey, topics)
		records = append(records, rec)
	}
	return records
}

// groupDetail resolves the detail table's own week-identifier column,
// picks the value column, and collapses rows into ordered per-week
// sequences. Returns false when the table cannot participate in the join.
func (p *Processor) groupDetail(d Detail) (map[string][]string, bool) {
	dt := d.Table.Clone()
	col, ok := table.ResolveColumn(dt.Columns, WeekColumnCandidates)
	if !ok {
		p.log.Warn("no week identifier column in detail table, skipping",
			zap.String("field", d.Field), zap.Strings("columns", dt.Columns))
		return nil, false
	}
	dt.RenameColumn(col, CanonicalWeekColumn)
	trimColumn(&dt, CanonicalWeekColumn)

	valueCol := ""
	for _, c := range dt.Columns {
		if strings.ToLower(c) != CanonicalWeekColumn {
			valueCol = c
			break
		}
	}
	if valueCol == "" {
		p.log.Warn("no value column in detail table, skipping",
			zap.String("field", d.Field))
		return nil, false
	}

	g := make(map[string][]string)
	for _, row := range dt.Rows {
		key := row[CanonicalWeekColumn]
		g[key] = append(g[key], row[valueCol])
	}
	return g, true
}

// topicSummary probes the topics index with the ordered stem candidates
// for a week number and returns the first hit, or nil.
func (p *Processor) topicSummary(weekNum string, topics *fragment.Index) any {
	padded := zfill(weekNum, 2)
	candidates := []string{
		weekNum,
		"week_" + padded,
		"week_" + weekNum,
		"week" + weekNum,
		"topic_week_" + weekNum,
	}
	for _, stem := range candidates {
		if text, ok := topics.Get(stem); ok && text != "" {
			return text
		}
	}
	p.log.Warn("no topic summary markdown found for week",
		zap.String("week", weekNum))
	return nil
}

func trimColumn(t *table.Table, col string) {
	for _, r := range t.Rows {
		r[col] = strings.TrimSpace(r[col])
	}
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
