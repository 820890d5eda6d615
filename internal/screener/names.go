package screener

// Screener names in their fixed run order
const (
	Momentum97         = "Momentum 97"
	ExplosiveEPSGrowth = "Explosive EPS Growth"
	UpOnVolume         = "Up on Volume"
	TopRS              = "Top 2% RS"
	Bullish4           = "4% Bullish Yesterday"
	HealthyChart       = "Healthy Chart Watchlist"
)

var names = []string{
	Momentum97,
	ExplosiveEPSGrowth,
	UpOnVolume,
	TopRS,
	Bullish4,
	HealthyChart,
}

var displayNames = map[string]string{
	Momentum97:         "Momentum 97",
	ExplosiveEPSGrowth: "Explosive Estimated EPS Growth Stocks",
	UpOnVolume:         "Up on Volume List",
	TopRS:              "Top 2% RS Rating List",
	Bullish4:           "4% Bullish Yesterday",
	HealthyChart:       "Healthy Chart Watch List",
}

// Names returns the screener names in run order
func Names() []string {
	return append([]string(nil), names...)
}

// DisplayName returns the report heading of a screener
func DisplayName(name string) string {
	if d, ok := displayNames[name]; ok {
		return d
	}
	return name
}

// Known reports whether name is a screener
func Known(name string) bool {
	_, ok := displayNames[name]
	return ok
}
