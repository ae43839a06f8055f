package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), DefaultConfig("storefront"))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTracer_ReturnsNamedTracer(t *testing.T) {
	tr := Tracer("storefront")
	require.NotNil(t, tr)

	_, span := tr.Start(context.Background(), "test-span")
	span.End()
}
