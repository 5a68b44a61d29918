package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
)

var sinType = ir.NewBehaviourTypeID("math", "sin")

func TestFromEvent_Success(t *testing.T) {
	rec := FromEvent(7, behaviour.TransitionEvent{
		Owner:     "e1",
		Behaviour: sinType,
		From:      behaviour.Created,
		Target:    behaviour.Connected,
		Result:    behaviour.Connected,
	})

	assert.Equal(t, Record{
		Seq:       7,
		Owner:     "e1",
		Behaviour: "math::sin",
		From:      "created",
		Target:    "connected",
		Result:    "connected",
		Outcome:   OutcomeOK,
	}, rec)
}

func TestFromEvent_FailureCarriesCode(t *testing.T) {
	err := &behaviour.TransitionError{
		Code:      behaviour.ErrCodeBehaviourInvalid,
		Behaviour: sinType,
		From:      behaviour.Created,
		To:        behaviour.Connected,
		Err:       behaviour.PropertyMissing("lhs"),
	}

	rec := FromEvent(1, behaviour.TransitionEvent{
		Owner:     "e1",
		Behaviour: sinType,
		From:      behaviour.Created,
		Target:    behaviour.Connected,
		Result:    behaviour.Created,
		Err:       fmt.Errorf("wrapped: %w", err),
	})

	assert.Equal(t, OutcomeError, rec.Outcome)
	assert.Equal(t, "BEHAVIOUR_INVALID", rec.Code)
	assert.Contains(t, rec.Error, `property "lhs" missing`)
}

func TestAppendAndRead(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	records := []Record{
		{Seq: 1, Owner: "a", Behaviour: "math::sin", From: "created", Target: "connected", Result: "connected", Outcome: OutcomeOK},
		{Seq: 2, Owner: "b", Behaviour: "math::cos", From: "created", Target: "connected", Result: "connected", Outcome: OutcomeOK},
		{Seq: 3, Owner: "a", Behaviour: "math::sin", From: "connected", Target: "disconnected", Result: "disconnected", Outcome: OutcomeOK},
	}

	require.NoError(t, j.Append(ctx, records...))

	all, err := j.Read(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, records, all)

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)
}

func TestRead_Filters(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	for i := int64(1); i <= 6; i++ {
		owner := "a"
		if i%2 == 0 {
			owner = "b"
		}
		require.NoError(t, j.Append(ctx, Record{
			Seq: i, Owner: owner, Behaviour: "math::sin",
			From: "created", Target: "connected", Result: "connected", Outcome: OutcomeOK,
		}))
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"owner", Filter{Owner: "b"}, []int64{2, 4, 6}},
		{"after", Filter{AfterSeq: 4}, []int64{5, 6}},
		{"limit", Filter{Limit: 2}, []int64{1, 2}},
		{"combined", Filter{Owner: "a", AfterSeq: 1, Limit: 1}, []int64{3}},
		{"behaviour", Filter{Behaviour: "math::cos"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.Read(ctx, tt.filter)
			require.NoError(t, err)
			var seqs []int64
			for _, r := range got {
				seqs = append(seqs, r.Seq)
			}
			assert.Equal(t, tt.want, seqs)
		})
	}
}

func TestAppend_DuplicateSeqFails(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	rec := Record{Seq: 1, Owner: "a", Behaviour: "x::y", From: "created", Target: "connected", Result: "connected", Outcome: OutcomeOK}
	require.NoError(t, j.Append(ctx, rec))

	err := j.Append(ctx, rec)

	assert.Error(t, err)
}

func TestAppend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, Record{Seq: 5, Owner: "a", Behaviour: "x::y", From: "created", Target: "connected", Result: "connected", Outcome: OutcomeOK}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), last)
}
