package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPipelineError(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name    string
		kind    ErrorKind
		message string
		cause   error
		want    string
	}{
		{
			name:    "with cause",
			kind:    ErrFetch,
			message: "fetch failed",
			cause:   cause,
			want:    "FETCH_ERROR: fetch failed: boom",
		},
		{
			name:    "without cause",
			kind:    ErrConfig,
			message: "missing mapping file",
			cause:   nil,
			want:    "CONFIG_ERROR: missing mapping file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPipelineError(tt.kind, tt.message, tt.cause)

			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.want, err.Error())
			if tt.cause != nil {
				assert.True(t, errors.Is(err, tt.cause), "expected errors.Is to unwrap to cause")
			}
			assert.LessOrEqual(t, time.Since(err.Timestamp), time.Minute, "timestamp should be recent")
		})
	}
}

func TestFieldError(t *testing.T) {
	err := NewFieldError("icd10", "must not be null", nil)
	assert.Equal(t, "validation error for field 'icd10': must not be null", err.Error())
}

func TestStageReport(t *testing.T) {
	var report StageReport
	report.Total = 3
	report.AddSuccess()
	report.AddSuccess()
	report.AddFailure("hum0001-v1-ja", errors.New("parse error"))

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.FailedCount())
	assert.Equal(t, "hum0001-v1-ja", report.Failed[0].Key)
}
