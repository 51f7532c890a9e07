package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProcessingLog_Record(t *testing.T) {
	log := NewProcessingLog("p1", ProcessingProjectOpen, "admin-1", 4, time.Now())

	log.Record("u1", OutcomeSucceeded, nil)
	log.Record("u2", OutcomeSkipped, nil)
	log.Record("u3", OutcomeFailed, errors.New("lock timeout"))
	log.Record("u4", OutcomeFailed, nil)

	assert.Equal(t, 1, log.Succeeded)
	assert.Equal(t, 1, log.Skipped)
	assert.Equal(t, 2, log.Failed)
	assert.True(t, log.HasFailures())
	assert.Equal(t, []string{"u3", "u4"}, log.FailedUnitIDs())
	assert.Equal(t, UnitFailure{UnitID: "u3", Error: "lock timeout"}, log.Failures[0])
	assert.Equal(t, "", log.Failures[1].Error)
}

func TestProcessingLog_Empty(t *testing.T) {
	log := NewProcessingLog("p1", ProcessingRetry, "system", 0, time.Now())

	assert.False(t, log.HasFailures())
	assert.Empty(t, log.FailedUnitIDs())
	assert.NotNil(t, log.Failures)
}
