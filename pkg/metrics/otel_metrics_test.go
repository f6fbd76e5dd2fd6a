package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMetrics_UsableWithoutProvider(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	assert.Same(t, m, GetMetrics())

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordVerdict(ctx, "withinOfficeZone", true)
		m.RecordLocationFailure(ctx, "timeout")
		m.RecordGrantMatch(ctx, "fallback", true)
		m.RecordWrite(ctx, "check_in", "ok")
		m.RecordAcquireDuration(ctx, 0.2, "ok")
		m.RecordAttemptEvent(ctx, "published", "ok")
	})
}
