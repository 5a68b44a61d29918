package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
)

// Outcome of a recorded transition.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Record is one journaled transition.
type Record struct {
	Seq       int64  `json:"seq"`
	Owner     string `json:"owner"`
	Behaviour string `json:"behaviour"`
	From      string `json:"from"`
	Target    string `json:"target"`
	Result    string `json:"result"`
	Outcome   string `json:"outcome"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FromEvent converts a transition event into a record with sequence seq.
func FromEvent(seq int64, ev behaviour.TransitionEvent) Record {
	rec := Record{
		Seq:       seq,
		Owner:     ev.Owner,
		Behaviour: ev.Behaviour.String(),
		From:      ev.From.String(),
		Target:    ev.Target.String(),
		Result:    ev.Result.String(),
		Outcome:   OutcomeOK,
	}
	if !ev.Succeeded() {
		rec.Outcome = OutcomeError
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
		var te *behaviour.TransitionError
		if errors.As(ev.Err, &te) {
			rec.Code = string(te.Code)
		}
	}
	return rec
}

// Append writes records in one transaction.
func (j *Journal) Append(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transitions
		(seq, owner, behaviour_type, from_state, target_state, result_state, outcome, code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Seq, r.Owner, r.Behaviour, r.From, r.Target, r.Result, r.Outcome, r.Code, r.Error); err != nil {
			return fmt.Errorf("append seq %d: %w", r.Seq, err)
		}
	}
	return tx.Commit()
}

// Filter narrows Read. Zero fields match everything.
type Filter struct {
	Owner     string
	Behaviour string
	AfterSeq  int64
	Limit     int
}

// Read returns matching records in sequence order.
func (j *Journal) Read(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Owner != "" {
		where = append(where, "owner = ?")
		args = append(args, f.Owner)
	}
	if f.Behaviour != "" {
		where = append(where, "behaviour_type = ?")
		args = append(args, f.Behaviour)
	}
	if f.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	var q strings.Builder
	q.WriteString(`SELECT seq, owner, behaviour_type, from_state, target_state, result_state, outcome, code, error
		FROM transitions`)
	if len(where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY seq")
	if f.Limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("read transitions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Seq, &r.Owner, &r.Behaviour, &r.From, &r.Target, &r.Result, &r.Outcome, &r.Code, &r.Error); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
