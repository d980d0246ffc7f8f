// Package pair normalizes crypto trading pairs and maps between exchange
// symbols and CoinGecko coin IDs.
package pair

import (
	"fmt"
	"regexp"
	"strings"
)

// Common quote currencies in order of priority for detection
var quoteCurrencies = []string{"USDT", "BUSD", "USDC", "BTC", "ETH", "BNB"}

var validPair = regexp.MustCompile(`^[A-Za-z0-9]{2,20}$`)

// Base symbol to CoinGecko coin ID
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"ETC":   "ethereum-classic",
	"XLM":   "stellar",
	"ALGO":  "algorand",
	"NEAR":  "near",
	"AAVE":  "aave",
	"ARB":   "arbitrum",
	"OP":    "optimism",
}

var symbolsByCoinID = func() map[string]string {
	m := make(map[string]string, len(coinIDs))
	for sym, id := range coinIDs {
		m[id] = sym
	}
	return m
}()

// Normalize converts various input formats to the exchange format.
// "BTC", "btc", "BTC-USDT", "BTC/USDT" and "bitcoin" all become "BTCUSDT"
// with defaultQuote USDT.
func Normalize(input string, defaultQuote string) string {
	if input == "" {
		return ""
	}
	if sym, ok := symbolsByCoinID[strings.ToLower(input)]; ok {
		input = sym
	}

	s := strings.ToUpper(input)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")

	// A symbol must keep a base currency once the quote is stripped.
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return s
		}
	}

	return s + strings.ToUpper(defaultQuote)
}

// Parse extracts base and quote from a normalized pair.
// "BTCUSDT" -> ("BTC", "USDT")
func Parse(symbol string) (base, quote string) {
	s := strings.ToUpper(symbol)

	for _, q := range quoteCurrencies {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}

	// Fallback: assume last 4 chars are quote (USDT, BUSD, etc.)
	if len(s) > 4 {
		return s[:len(s)-4], s[len(s)-4:]
	}

	return s, ""
}

// Display converts a normalized pair to "BASE/QUOTE".
func Display(symbol string) string {
	base, quote := Parse(symbol)
	if quote == "" {
		return base
	}
	return base + "/" + quote
}

// CoinID returns the CoinGecko ID for a pair, falling back to the
// lowercased base symbol.
func CoinID(symbol string) string {
	base, _ := Parse(symbol)
	if id, ok := coinIDs[base]; ok {
		return id
	}
	return strings.ToLower(base)
}

// Validate checks a user-supplied coin or pair is safe to put in a URL.
func Validate(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 30 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}

	s := strings.ReplaceAll(symbol, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")

	if !validPair.MatchString(s) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}
