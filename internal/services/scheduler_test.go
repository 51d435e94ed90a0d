package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

type countingRebuilder struct {
	calls    int
	err      error
	deadline bool
}

func (r *countingRebuilder) Rebuild(ctx context.Context) (*models.Snapshot, error) {
	r.calls++
	_, r.deadline = ctx.Deadline()
	if r.err != nil {
		return nil, r.err
	}
	return &models.Snapshot{Items: []models.Record{{"cnpj": "1"}, {"cnpj": "2"}}}, nil
}

func TestNewScheduler(t *testing.T) {
	s, err := NewScheduler("0 6 * * *", time.Minute, &countingRebuilder{}, nullLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	disabled, err := NewScheduler("", time.Minute, &countingRebuilder{}, nullLogger())
	require.NoError(t, err)
	assert.Zero(t, disabled.Entries())

	_, err = NewScheduler("every now and then", time.Minute, &countingRebuilder{}, nullLogger())
	assert.Error(t, err)
}

func TestScheduler_Job(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level logrus.Level
		msg   string
	}{
		{"success", nil, logrus.InfoLevel, "Scheduled snapshot rebuild finished"},
		{"already running", ErrRebuildInProgress, logrus.InfoLevel, "Skipping scheduled rebuild, one is already running"},
		{"failure", errors.New("modalidade 6: HTTP 500"), logrus.ErrorLevel, "Scheduled snapshot rebuild failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := logtest.NewNullLogger()
			r := &countingRebuilder{err: tt.err}
			s, err := NewScheduler("0 6 * * *", time.Minute, r, log)
			require.NoError(t, err)

			s.rebuild()

			assert.Equal(t, 1, r.calls)
			assert.True(t, r.deadline)
			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.msg, entry.Message)
			if tt.err == nil {
				assert.Equal(t, 2, entry.Data["items"])
			}
		})
	}
}
