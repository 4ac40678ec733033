package checkout

import (
	"errors"
	"testing"

	"greenora/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTrackerFailLogsStagePath(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := newTracker(zap.New(core))

	tr.enter(StageValidating)
	tr.enter(StagePricing)
	tr.enter(StagePersistingOrder)
	err := tr.fail(apperr.ErrInsufficientStock)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StagePersistingOrder, se.Stage)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	failed := logs.FilterField(zap.String("to", string(StageFailed))).All()
	require.Len(t, failed, 1)
	assert.Equal(t,
		[]any{"VALIDATING", "PRICING", "PERSISTING_ORDER"},
		failed[0].ContextMap()["path"],
	)
}
