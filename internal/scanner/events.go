package scanner

import (
	"sync"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls this far behind starts losing alerts instead of blocking
// the scan loop.
const subscriberBuffer = 16

// Feed fans persisted signals out to live subscribers
// ⭐ SSOT: 실시간 시그널 브로드캐스트는 여기서만
type Feed struct {
	logger *logger.Logger

	mu     sync.RWMutex
	subs   map[int]chan *contracts.Alert
	nextID int
}

// NewFeed creates an empty feed
func NewFeed(log *logger.Logger) *Feed {
	return &Feed{
		logger: log,
		subs:   make(map[int]chan *contracts.Alert),
	}
}

// Subscribe registers a buffered subscriber channel. The returned
// cancel func removes the subscription and closes the channel; it is
// safe to call more than once.
func (f *Feed) Subscribe() (<-chan *contracts.Alert, func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	ch := make(chan *contracts.Alert, subscriberBuffer)
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an alert to every subscriber. Subscribers with a
// full buffer are skipped, never waited on.
func (f *Feed) Publish(alert *contracts.Alert) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for id, ch := range f.subs {
		select {
		case ch <- alert:
		default:
			f.logger.WithFields(map[string]interface{}{
				"subscriber": id,
				"ticker":     alert.Ticker,
			}).Warn("Dropping alert for slow subscriber")
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
