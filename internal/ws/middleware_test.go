// FilePath: internal/ws/middleware_test.go
package ws_test

import (
	"context"
	"testing"
	"time"

	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passthrough(calls *int) ws.MessageHandler {
	return func(ctx context.Context, mc *ws.MessageContext) (interface{}, error) {
		*calls++
		return "ok", nil
	}
}

func readingContext(sensorID string, value *float64, ts string) *ws.MessageContext {
	client, _ := newTestClient("conn-mw")
	return &ws.MessageContext{
		Client: client,
		Envelope: ws.Inbound{
			Type:      ws.MessageTypePublishReading,
			SensorID:  sensorID,
			Value:     value,
			Timestamp: ts,
		},
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) ws.Middleware {
		return func(next ws.MessageHandler) ws.MessageHandler {
			return func(ctx context.Context, mc *ws.MessageContext) (interface{}, error) {
				order = append(order, name)
				return next(ctx, mc)
			}
		}
	}

	calls := 0
	handler := ws.Chain(passthrough(&calls), tag("outer"), tag("inner"))
	_, err := handler(context.Background(), readingContext("sen-1", f64(1), ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, 1, calls)
}

func TestRecoverConvertsPanic(t *testing.T) {
	handler := ws.Chain(func(ctx context.Context, mc *ws.MessageContext) (interface{}, error) {
		panic("boom")
	}, ws.Recover())

	var result interface{}
	var err error
	require.NotPanics(t, func() {
		result, err = handler(context.Background(), readingContext("sen-1", f64(1), ""))
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, "internal_error", errors.AsAPIError(err).WireType())
}

func TestValidateReadingRequiresFields(t *testing.T) {
	calls := 0
	handler := ws.Chain(passthrough(&calls), ws.ValidateReading())

	_, err := handler(context.Background(), readingContext("", f64(42), ""))
	require.Error(t, err)
	assert.Equal(t, "validation_error", errors.AsAPIError(err).WireType())

	_, err = handler(context.Background(), readingContext("sen-1", nil, ""))
	require.Error(t, err)
	assert.Equal(t, "validation_error", errors.AsAPIError(err).WireType())

	assert.Equal(t, 0, calls, "invalid frames must not reach the handler")
}

func TestValidateReadingTimestampFormat(t *testing.T) {
	calls := 0
	handler := ws.Chain(passthrough(&calls), ws.ValidateReading())

	_, err := handler(context.Background(), readingContext("sen-1", f64(42), "not-a-timestamp"))
	require.Error(t, err)

	_, err = handler(context.Background(), readingContext("sen-1", f64(42), time.Now().Format(time.RFC3339)))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestValidateReadingAcceptsZeroValue(t *testing.T) {
	calls := 0
	handler := ws.Chain(passthrough(&calls), ws.ValidateReading())

	// 0 is a legitimate reading; only a missing value field is rejected
	_, err := handler(context.Background(), readingContext("sen-1", f64(0), ""))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRateLimitCapsPerConnection(t *testing.T) {
	calls := 0
	handler := ws.Chain(passthrough(&calls), ws.RateLimit(3, time.Minute))
	mc := readingContext("sen-1", f64(1), "")

	for i := 0; i < 3; i++ {
		_, err := handler(context.Background(), mc)
		require.NoError(t, err)
	}

	_, err := handler(context.Background(), mc)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRateLimitIsPerConnection(t *testing.T) {
	calls := 0
	handler := ws.Chain(passthrough(&calls), ws.RateLimit(1, time.Minute))

	first := readingContext("sen-1", f64(1), "")
	second := readingContext("sen-1", f64(1), "")
	second.Client.ID = "conn-other"

	_, err := handler(context.Background(), first)
	require.NoError(t, err)
	_, err = handler(context.Background(), second)
	require.NoError(t, err)

	_, err = handler(context.Background(), first)
	assert.Error(t, err, "first connection exhausted its window")
}

func f64(v float64) *float64 { return &v }
