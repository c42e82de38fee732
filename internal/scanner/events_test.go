package scanner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/breakout/backend/internal/contracts"
)

func testAlert(ticker string) *contracts.Alert {
	return &contracts.Alert{
		Ticker:     ticker,
		Market:     contracts.MarketUS,
		Pattern:    contracts.PatternPivotBreakout,
		Source:     contracts.SourceBackgroundScanner,
		AlertPrice: 123.45,
	}
}

func TestFeedPublishDelivers(t *testing.T) {
	feed := NewFeed(testLogger())

	ch1, cancel1 := feed.Subscribe()
	ch2, cancel2 := feed.Subscribe()
	defer cancel1()
	defer cancel2()

	feed.Publish(testAlert("NVDA"))

	for i, ch := range []<-chan *contracts.Alert{ch1, ch2} {
		select {
		case alert := <-ch:
			assert.Equal(t, "NVDA", alert.Ticker, "subscriber %d", i)
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestFeedUnsubscribe(t *testing.T) {
	feed := NewFeed(testLogger())

	ch, cancel := feed.Subscribe()
	require.Equal(t, 1, feed.SubscriberCount())

	cancel()
	assert.Equal(t, 0, feed.SubscriberCount())

	// Channel is closed so a ranging reader terminates
	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after unsubscribe must not panic
	feed.Publish(testAlert("NVDA"))

	// Cancel is idempotent
	cancel()
}

func TestFeedDropsSlowSubscriber(t *testing.T) {
	feed := NewFeed(testLogger())

	slow, cancelSlow := feed.Subscribe()
	fast, cancelFast := feed.Subscribe()
	defer cancelSlow()
	defer cancelFast()

	// One more than the buffer; the slow subscriber never reads
	for i := 0; i < subscriberBuffer+1; i++ {
		feed.Publish(testAlert(fmt.Sprintf("T%d", i)))

		// Keep the fast subscriber drained
		select {
		case alert := <-fast:
			assert.Equal(t, fmt.Sprintf("T%d", i), alert.Ticker)
		default:
			t.Fatalf("fast subscriber missed alert %d", i)
		}
	}

	// Slow subscriber kept the first subscriberBuffer alerts, lost the rest
	assert.Len(t, slow, subscriberBuffer)
	first := <-slow
	assert.Equal(t, "T0", first.Ticker)
}
