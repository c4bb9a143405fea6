package exchange

import (
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/skalibog/galilei/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggTrade(symbol, price, qty string, maker bool) *futures.WsAggTradeEvent {
	return &futures.WsAggTradeEvent{
		Symbol:    symbol,
		Price:     price,
		Quantity:  qty,
		Maker:     maker,
		TradeTime: 1735689600000,
	}
}

func TestHandleEventSideMapping(t *testing.T) {
	stream := NewTradeStream([]string{"BTCUSDT"}, 8)

	// Maker=false: агрессор покупал
	stream.handleEvent(aggTrade("BTCUSDT", "65000.1", "0.5", false))
	// Maker=true: агрессор продавал
	stream.handleEvent(aggTrade("BTCUSDT", "64999.9", "1.5", true))

	buy := <-stream.Trades()
	assert.Equal(t, models.Buy, buy.Side)
	assert.InDelta(t, 65000.1, buy.Price, 1e-9)
	assert.InDelta(t, 0.5, buy.Quantity, 1e-9)

	sell := <-stream.Trades()
	assert.Equal(t, models.Sell, sell.Side)
	assert.InDelta(t, 1.5, sell.Quantity, 1e-9)
}

func TestHandleEventSkipsMalformed(t *testing.T) {
	stream := NewTradeStream([]string{"BTCUSDT"}, 8)

	stream.handleEvent(aggTrade("BTCUSDT", "не число", "0.5", false))
	stream.handleEvent(aggTrade("BTCUSDT", "65000.1", "мусор", false))

	select {
	case trade := <-stream.Trades():
		t.Fatalf("некорректное событие попало в канал: %+v", trade)
	default:
	}
}

func TestHandleEventDropsOnFullBuffer(t *testing.T) {
	stream := NewTradeStream([]string{"BTCUSDT"}, 2)

	for i := 0; i < 5; i++ {
		stream.handleEvent(aggTrade("BTCUSDT", "65000.1", "1.0", false))
	}

	// Буфер удержал ровно свою емкость, остальное отброшено без блокировки
	assert.Len(t, stream.Trades(), 2)
	assert.Equal(t, int64(3), stream.dropped.Load())
}

func TestReconnectShortLivedConnectionsKeepBackoff(t *testing.T) {
	r := newReconnectState()

	// Подключение, которое тут же обрывается, продолжает серию неудач:
	// пауза перед следующей попыткой растет, а не сбрасывается
	for i := 0; i < degradedAfterAttempts; i++ {
		d, stable := r.onDisconnect(time.Second)
		assert.False(t, stable)
		assert.Positive(t, d)
	}
	assert.Equal(t, degradedAfterAttempts, r.attempts)
	assert.True(t, r.exhausted())
}

func TestReconnectStableConnectionResetsSeries(t *testing.T) {
	r := newReconnectState()
	for i := 0; i < degradedAfterAttempts; i++ {
		r.onFailure()
	}
	require.True(t, r.exhausted())

	d, stable := r.onDisconnect(streamStableAfter)
	assert.True(t, stable)
	assert.Zero(t, d)
	assert.False(t, r.exhausted())

	// Серия начинается заново с минимальной паузы
	assert.LessOrEqual(t, r.onFailure(), 2*time.Second)
}

func TestMarkDegradedAfterExhaustedSeries(t *testing.T) {
	stream := NewTradeStream([]string{"BTCUSDT"}, 8)
	r := newReconnectState()

	for i := 0; i < degradedAfterAttempts-1; i++ {
		r.onFailure()
		stream.markDegraded(r)
		assert.False(t, stream.Degraded(), "попытка %d", i+1)
	}

	r.onFailure()
	stream.markDegraded(r)
	assert.True(t, stream.Degraded())
}

func TestNewTradeStreamDefaultBuffer(t *testing.T) {
	stream := NewTradeStream([]string{"BTCUSDT"}, 0)
	require.NotNil(t, stream)
	assert.Equal(t, 4096, cap(stream.out))
	assert.False(t, stream.Degraded())
}
