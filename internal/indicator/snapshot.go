package indicator

import (
	"fmt"
	"math"

	"github.com/newthinker/compass/internal/core"
)

// Standard indicator parameters.
const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	SMAShortPeriod  = 5
	SMALongPeriod   = 20
	BollingerPeriod = 20
	BollingerK      = 2.0

	// MinPoints is the shortest price window Compute accepts.
	MinPoints = MACDSlow
)

// Snapshot is the latest value of every indicator over a price window.
type Snapshot struct {
	Price float64

	RSI    float64
	HasRSI bool

	MACD       float64
	MACDSignal float64
	PrevMACD   float64
	PrevSignal float64

	SMAShort float64
	SMALong  float64

	BollingerUpper  float64
	BollingerMiddle float64
	BollingerLower  float64
}

// MACDDiff returns MACD minus its signal line.
func (s Snapshot) MACDDiff() float64 {
	return s.MACD - s.MACDSignal
}

// Compute evaluates every indicator on prices and returns the latest values.
func Compute(prices []float64) (Snapshot, error) {
	if len(prices) < MinPoints {
		return Snapshot{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need %d prices, got %d", MinPoints, len(prices)))
	}

	last := len(prices) - 1
	snap := Snapshot{Price: prices[last]}

	if rsi := RSI(prices, RSIPeriod); len(rsi) > 0 && !math.IsNaN(rsi[len(rsi)-1]) {
		snap.RSI = rsi[len(rsi)-1]
		snap.HasRSI = true
	}

	macd := MACD(prices, MACDFast, MACDSlow, MACDSignal)
	snap.MACD = macd.MACD[last]
	snap.MACDSignal = macd.Signal[last]
	snap.PrevMACD = macd.MACD[last-1]
	snap.PrevSignal = macd.Signal[last-1]

	snap.SMAShort, _ = Last(SMA(prices, SMAShortPeriod))
	snap.SMALong, _ = Last(SMA(prices, SMALongPeriod))

	bb := Bollinger(prices, BollingerPeriod, BollingerK)
	snap.BollingerUpper, _ = Last(bb.Upper)
	snap.BollingerMiddle, _ = Last(bb.Middle)
	snap.BollingerLower, _ = Last(bb.Lower)

	return snap, nil
}
