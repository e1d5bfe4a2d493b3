package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "blogicum-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartRepositorySpan(context.Background(), "ListVisible", "posts")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(ContentWrites.WithLabelValues("post", "create"))
	RecordWrite("post", "create")
	assert.Equal(t, before+1, testutil.ToFloat64(ContentWrites.WithLabelValues("post", "create")))

	before = testutil.ToFloat64(AccessDenials.WithLabelValues("comment", "not_found"))
	RecordDenial("comment", "not_found")
	assert.Equal(t, before+1, testutil.ToFloat64(AccessDenials.WithLabelValues("comment", "not_found")))
}

func TestTrackQuery(t *testing.T) {
	done := TrackQuery("select", "posts")
	done()
	assert.Positive(t, testutil.CollectAndCount(DatabaseQueryLatency))
}
