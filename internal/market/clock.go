package market

import (
	"fmt"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
)

// KST is the reference timezone for every schedule in this system.
// Korea observes no DST, so a fixed offset is exact and needs no tzdata.
var KST = time.FixedZone("KST", 9*60*60)

// US regular session seen from KST, with buffer for DST drift:
// summer 22:30~05:00, winter 23:30~06:00 → 22:00~07:00 covers both.
const (
	openEveningSec  = 22 * 3600 // 22:00:00
	closeMorningSec = 7 * 3600  // 07:00:00
)

// Now returns the current time in KST
func Now() time.Time {
	return time.Now().In(KST)
}

// IsOpen reports whether the US regular session is active at the given
// time. The session spans midnight in KST, so weekday handling has two
// special cases: Sunday evening starts Monday's session, and Saturday
// pre-dawn is the tail of Friday's session.
func IsOpen(now time.Time) bool {
	t := now.In(KST)
	wd := t.Weekday()
	sod := t.Hour()*3600 + t.Minute()*60 + t.Second()

	open := false
	if wd != time.Saturday && wd != time.Sunday {
		// 야간 세션 (22:00~23:59) 또는 새벽 세션 (00:00~07:00)
		if sod >= openEveningSec || sod <= closeMorningSec {
			open = true
		}
	}

	// Sunday night after 22:00 is Monday's trading
	if wd == time.Sunday && sod >= openEveningSec {
		open = true
	}

	// Saturday morning until 07:00 is Friday's trading end
	if wd == time.Saturday && sod <= closeMorningSec {
		open = true
	}

	return open
}

// Status returns the market status snapshot at the given time
func Status(now time.Time) contracts.MarketStatus {
	t := now.In(KST)
	return contracts.MarketStatus{
		IsOpen:  IsOpen(t),
		Time:    t.Format("15:04:05"),
		Weekday: t.Format("Mon"),
	}
}

// FormatStatusMessage renders a one-line status for logs
func FormatStatusMessage(status contracts.MarketStatus, watchlistCount int) string {
	text := "US Market CLOSED"
	if status.IsOpen {
		text = "US Market OPEN"
	}
	return fmt.Sprintf("%s | %s %s KST | %d stocks", text, status.Weekday, status.Time, watchlistCount)
}
