package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vacated struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope("wall", EventBlockVacated, vacated{X: 1, Z: 0})
	require.NoError(t, err)

	assert.Len(t, ev.ID, 36, "ID в формате UUID")
	assert.Equal(t, EventBlockVacated, ev.EventType)
	assert.JSONEq(t, `{"x":1,"z":0}`, string(ev.Payload))

	var got vacated
	require.NoError(t, ev.Decode(&got))
	assert.Equal(t, vacated{X: 1}, got)

	other, err := NewEnvelope("wall", EventBlockVacated, vacated{})
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestMemoryBus_FilterAndClose(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var vacatedCount, allCount int32
	_, err := bus.Subscribe(ctx, Filter{Types: []string{EventBlockVacated}}, func(ctx context.Context, ev *Envelope) {
		atomic.AddInt32(&vacatedCount, 1)
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		atomic.AddInt32(&allCount, 1)
	})
	require.NoError(t, err)

	for _, typ := range []string{EventBlockVacated, EventPlayerEliminated, EventBlockVacated} {
		ev, err := NewEnvelope("test", typ, struct{}{})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, ev))
	}

	require.NoError(t, bus.Close(), "Close дожидается доставки")
	assert.Equal(t, int32(2), atomic.LoadInt32(&vacatedCount))
	assert.Equal(t, int32(3), atomic.LoadInt32(&allCount))

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(5), stats.Consumed)

	ev, _ := NewEnvelope("test", EventBlockVacated, struct{}{})
	assert.ErrorIs(t, bus.Publish(ctx, ev), ErrClosed)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx := context.Background()

	var count int32
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		atomic.AddInt32(&count, 1)
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, _ := NewEnvelope("test", EventSessionStarted, struct{}{})
	require.NoError(t, bus.Publish(ctx, ev))
	require.NoError(t, bus.Close())
	assert.Zero(t, atomic.LoadInt32(&count))
}

func TestMetricsExporter_Sync(t *testing.T) {
	bus := NewMemoryBus(4)
	reg := prometheus.NewRegistry()
	exporter := NewMetricsExporter(bus, reg)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ev, _ := NewEnvelope("test", EventBlockVacated, struct{}{})
		require.NoError(t, bus.Publish(ctx, ev))
	}
	require.NoError(t, bus.Close())

	exporter.Sync()
	exporter.Sync() // повторный снимок не удваивает счётчики
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.published))
	assert.Equal(t, 0.0, testutil.ToFloat64(exporter.inflight))

	exporter.Start(time.Millisecond)
	exporter.Stop()
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.published))
}
