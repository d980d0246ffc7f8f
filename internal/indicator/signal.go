package indicator

import "strings"

// Action is a trading bias derived from indicators.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Per-indicator vote confidences.
const (
	rsiVoteConfidence       = 0.8
	macdCrossVoteConfidence = 0.7
	maVoteConfidence        = 0.6
	bollingerVoteConfidence = 0.5
	holdConfidence          = 0.5
)

// Signal is the combined indicator vote.
type Signal struct {
	Action     Action
	Confidence float64
	Reason     string
}

type vote struct {
	action     Action
	confidence float64
	reason     string
}

// GenerateSignal combines indicator votes by majority. Confidence is the
// mean confidence of the winning side, or 0.5 on a tie or no votes.
func GenerateSignal(s Snapshot) Signal {
	var votes []vote

	if s.HasRSI {
		switch {
		case s.RSI < 30:
			votes = append(votes, vote{ActionBuy, rsiVoteConfidence, "RSI oversold"})
		case s.RSI > 70:
			votes = append(votes, vote{ActionSell, rsiVoteConfidence, "RSI overbought"})
		}
	}

	if s.MACD > s.MACDSignal {
		if s.PrevMACD <= s.PrevSignal {
			votes = append(votes, vote{ActionBuy, macdCrossVoteConfidence, "MACD golden cross"})
		}
	} else if s.PrevMACD >= s.PrevSignal {
		votes = append(votes, vote{ActionSell, macdCrossVoteConfidence, "MACD dead cross"})
	}

	if s.SMAShort > s.SMALong {
		votes = append(votes, vote{ActionBuy, maVoteConfidence, "short MA above long MA"})
	} else {
		votes = append(votes, vote{ActionSell, maVoteConfidence, "short MA below long MA"})
	}

	switch {
	case s.Price > s.BollingerUpper:
		votes = append(votes, vote{ActionSell, bollingerVoteConfidence, "price above upper Bollinger band"})
	case s.Price < s.BollingerLower:
		votes = append(votes, vote{ActionBuy, bollingerVoteConfidence, "price below lower Bollinger band"})
	}

	var buys, sells int
	for _, v := range votes {
		if v.action == ActionBuy {
			buys++
		} else {
			sells++
		}
	}

	switch {
	case len(votes) == 0:
		return Signal{Action: ActionHold, Confidence: holdConfidence, Reason: "no clear signal"}
	case buys > sells:
		return tally(votes, ActionBuy)
	case sells > buys:
		return tally(votes, ActionSell)
	default:
		return Signal{Action: ActionHold, Confidence: holdConfidence, Reason: "conflicting signals"}
	}
}

func tally(votes []vote, side Action) Signal {
	var sum float64
	var n int
	var reasons []string
	for _, v := range votes {
		if v.action != side {
			continue
		}
		sum += v.confidence
		n++
		reasons = append(reasons, v.reason)
	}

	conf := sum / float64(n)
	if conf > 1 {
		conf = 1
	}
	return Signal{Action: side, Confidence: conf, Reason: strings.Join(reasons, ", ")}
}
