package contracts

// PriceMetrics are derived from a 180-bar window (>= 2 bars)
type PriceMetrics struct {
	Price          float64        `json:"price"`
	PctChange1D    float64        `json:"pct_change_1d"`    // 0 when previous close is 0
	ChangeFromOpen float64        `json:"change_from_open"` // 0 when open is 0
	PctChange1M    Maybe[float64] `json:"pct_1m"`           // 21 bars
	PctChange3M    Maybe[float64] `json:"pct_3m"`           // 63 bars
	PctChange6M    Maybe[float64] `json:"pct_6m"`           // 126 bars
}

// VolumeMetrics are derived from a 100-bar window (>= 90 bars).
// Volumes are reported in thousands of shares.
type VolumeMetrics struct {
	AvgVolume50    float64 `json:"avg_vol_50"`
	AvgVolume90    float64 `json:"avg_vol_90"`
	CurrentVolume  float64 `json:"current_volume"`
	VolumeChangePc float64 `json:"vol_change_pct"` // vs 50-day average, 0 when average is 0
	RelativeVolume float64 `json:"rel_volume"`     // current / avg50, 0 when average is 0
}

// MovingAverages are simple moving averages of closes.
// Each window is absent when the history is shorter than the window.
type MovingAverages struct {
	MA10  Maybe[float64] `json:"ma10"`
	MA21  Maybe[float64] `json:"ma21"`
	MA50  Maybe[float64] `json:"ma50"`
	MA150 Maybe[float64] `json:"ma150"`
	MA200 Maybe[float64] `json:"ma200"`
	Price float64        `json:"price"`
}

// ShortTermStacked reports MA10 > MA21 > MA50; false when any is absent
func (m MovingAverages) ShortTermStacked() bool {
	return descending(m.MA10, m.MA21, m.MA50)
}

// LongTermStacked reports MA50 > MA150 > MA200; false when any is absent
func (m MovingAverages) LongTermStacked() bool {
	return descending(m.MA50, m.MA150, m.MA200)
}

func descending(values ...Maybe[float64]) bool {
	prev, ok := values[0].Get()
	if !ok {
		return false
	}
	for _, v := range values[1:] {
		cur, ok := v.Get()
		if !ok || !(prev > cur) {
			return false
		}
		prev = cur
	}
	return true
}
