package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"t12insight/internal/model"
	"t12insight/internal/pipeline"
)

// Run is one persisted analysis run. Summary carries the full KPI
// summary; record rows live in metric_records.
type Run struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	Format       string            `json:"format"`
	Confidence   float64           `json:"confidence"`
	Sheet        string            `json:"sheet"`
	RecordCount  int               `json:"recordCount"`
	WarningCount int               `json:"warningCount"`
	Summary      *model.KPISummary `json:"summary,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// SaveRun persists a pipeline result and its canonical records in one
// transaction, returning the generated run id.
func (s *Store) SaveRun(filename string, res *pipeline.Result) (string, error) {
	summaryJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, filename, format, confidence, sheet, record_count, warning_count, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, filename, res.Format, res.Confidence, res.Table.Sheet, len(res.Table.Records), len(res.Warnings), string(summaryJSON))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO metric_records (run_id, property, metric, year, month, period_label, is_ytd, value, budget, unmapped, source_row)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range res.Table.Records {
		var budget interface{}
		if r.Budget != nil {
			budget = *r.Budget
		}
		_, err := stmt.Exec(id, r.Property, r.Metric, r.Period.Year, int(r.Period.Month),
			r.PeriodLabel, r.IsYTD, r.Value, budget, r.Unmapped, r.SourceRow)
		if err != nil {
			return "", fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// GetRun loads one run by id, including its KPI summary.
func (s *Store) GetRun(id string) (*Run, error) {
	var run Run
	var summaryJSON string
	err := s.db.QueryRow(`
		SELECT id, filename, format, confidence, sheet, record_count, warning_count, summary_json, created_at
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Filename, &run.Format, &run.Confidence, &run.Sheet,
		&run.RecordCount, &run.WarningCount, &summaryJSON, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	if summaryJSON != "" {
		var summary model.KPISummary
		if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		run.Summary = &summary
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first, without their
// summaries.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, filename, format, confidence, sheet, record_count, warning_count, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Filename, &run.Format, &run.Confidence, &run.Sheet,
			&run.RecordCount, &run.WarningCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

// GetRecords loads the canonical records of one run in insertion order.
func (s *Store) GetRecords(runID string) ([]model.MetricRecord, error) {
	rows, err := s.db.Query(`
		SELECT property, metric, year, month, period_label, is_ytd, value, budget, unmapped, source_row
		FROM metric_records WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []model.MetricRecord
	for rows.Next() {
		var r model.MetricRecord
		var year, month int
		var budget sql.NullFloat64
		if err := rows.Scan(&r.Property, &r.Metric, &year, &month, &r.PeriodLabel,
			&r.IsYTD, &r.Value, &budget, &r.Unmapped, &r.SourceRow); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Period = model.Period{Year: year, Month: time.Month(month)}
		if budget.Valid {
			b := budget.Float64
			r.Budget = &b
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return out, nil
}
