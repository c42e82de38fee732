package detector

import (
	"math"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// minBars is the trailing window the detector evaluates. Series shorter
// than this produce no signal, not an error.
const minBars = 30

// Detector finds pivot breakout patterns in daily bar series
// ⭐ SSOT: 패턴 감지는 여기서만
type Detector struct {
	minVolumeSurge float64
	maxBreakoutPct float64
	logger         *logger.Logger
}

// New creates a detector from config thresholds
func New(cfg *config.Config, log *logger.Logger) *Detector {
	return &Detector{
		minVolumeSurge: cfg.Scanner.MinVolumeSurge,
		maxBreakoutPct: cfg.Scanner.MaxBreakoutPct,
		logger:         log,
	}
}

// NewWithThresholds creates a detector with explicit thresholds
func NewWithThresholds(minVolumeSurge, maxBreakoutPct float64, log *logger.Logger) *Detector {
	return &Detector{
		minVolumeSurge: minVolumeSurge,
		maxBreakoutPct: maxBreakoutPct,
		logger:         log,
	}
}

// Detect evaluates the trailing 30 bars for a pivot breakout:
//   - last close above the pivot resistance (highest close of the 19
//     bars preceding the last one)
//   - volume surge vs the window average of at least minVolumeSurge%
//   - breakout extension within (0, maxBreakoutPct]%
//
// Returns nil when the series does not qualify. Degenerate inputs
// (zero average volume, zero resistance) also return nil.
func (d *Detector) Detect(ticker string, bars contracts.Bars) *contracts.Signal {
	if len(bars) < minBars {
		return nil
	}

	recent := bars.Tail(minBars)
	last := recent[len(recent)-1]

	// 직전 29개 봉의 평균 거래량
	var volSum float64
	for _, b := range recent[:len(recent)-1] {
		volSum += float64(b.Volume)
	}
	avgVolume := volSum / float64(len(recent)-1)
	if avgVolume <= 0 {
		return nil
	}
	volumeSurge := (float64(last.Volume)/avgVolume - 1) * 100

	// 저항선: 오늘을 제외한 최근 19개 봉의 최고 종가
	window := recent[len(recent)-20 : len(recent)-1]
	resistance := window[0].Close
	for _, b := range window[1:] {
		if b.Close > resistance {
			resistance = b.Close
		}
	}
	if resistance <= 0 {
		return nil
	}

	currentPrice := last.Close
	breakoutPct := (currentPrice - resistance) / resistance * 100

	if currentPrice > resistance &&
		volumeSurge >= d.minVolumeSurge &&
		breakoutPct > 0 && breakoutPct <= d.maxBreakoutPct {
		return &contracts.Signal{
			Ticker:         ticker,
			Pattern:        contracts.PatternPivotBreakout,
			Price:          round2(currentPrice),
			Resistance:     round2(resistance),
			BreakoutPct:    round2(breakoutPct),
			VolumeSurgePct: round2(volumeSurge),
		}
	}

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
