package indicator

import (
	"math"
	"testing"
)

func TestEWM_Adjusted(t *testing.T) {
	// span=3 -> alpha=0.5, decay=0.5
	// [0] = 1
	// [1] = (2 + 0.5*1) / 1.5 = 5/3
	// [2] = (3 + 0.5*2 + 0.25*1) / 1.75 = 4.25/1.75
	ewm := EWM([]float64{1, 2, 3}, 3)

	expected := []float64{1, 5.0 / 3.0, 4.25 / 1.75}
	if len(ewm) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(ewm))
	}
	for i, v := range expected {
		if !almostEqual(ewm[i], v, 1e-12) {
			t.Errorf("ewm[%d] = %f, want %f", i, ewm[i], v)
		}
	}
}

func TestEWM_Constant(t *testing.T) {
	for i, v := range EWM([]float64{7, 7, 7, 7}, 12) {
		if !almostEqual(v, 7, 1e-12) {
			t.Errorf("ewm[%d] = %f, want 7", i, v)
		}
	}
}

func TestEWM_Empty(t *testing.T) {
	if got := EWM(nil, 5); len(got) != 0 {
		t.Errorf("expected empty slice, got %d values", len(got))
	}
}

func TestMACD_Trend(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	m := MACD(prices, MACDFast, MACDSlow, MACDSignal)
	if len(m.MACD) != len(prices) || len(m.Signal) != len(prices) || len(m.Histogram) != len(prices) {
		t.Fatalf("MACD output not aligned with input")
	}
	if m.MACD[0] != 0 {
		t.Errorf("MACD[0] = %f, want 0", m.MACD[0])
	}
	last := len(prices) - 1
	if m.MACD[last] <= 0 {
		t.Errorf("rising prices should give positive MACD, got %f", m.MACD[last])
	}
	if !almostEqual(m.Histogram[last], m.MACD[last]-m.Signal[last], 1e-12) {
		t.Error("histogram should equal MACD minus signal")
	}
}

func TestBollinger(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	bb := Bollinger(prices, 5, 2)

	if len(bb.Middle) != 1 {
		t.Fatalf("expected 1 value, got %d", len(bb.Middle))
	}
	// mean 3, sample variance 2.5
	std := math.Sqrt(2.5)
	if !almostEqual(bb.Middle[0], 3, 1e-12) {
		t.Errorf("middle = %f, want 3", bb.Middle[0])
	}
	if !almostEqual(bb.Upper[0], 3+2*std, 1e-12) {
		t.Errorf("upper = %f, want %f", bb.Upper[0], 3+2*std)
	}
	if !almostEqual(bb.Lower[0], 3-2*std, 1e-12) {
		t.Errorf("lower = %f, want %f", bb.Lower[0], 3-2*std)
	}
}

func TestBollinger_NotEnoughData(t *testing.T) {
	if bb := Bollinger([]float64{1, 2}, 20, 2); len(bb.Middle) != 0 {
		t.Errorf("expected empty result, got %d values", len(bb.Middle))
	}
}
