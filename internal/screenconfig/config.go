package screenconfig

// Config는 스크리너 임계값 전체 설정
// ⭐ SSOT: 모든 스크리너 임계값은 여기서만 정의
//
// Volumes are in thousands of shares, market caps in USD and every
// percentage in arithmetic percent units.
type Config struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	RS           RSWindow     `yaml:"rs_sts" json:"rs_sts"`
	Momentum97   Momentum97   `yaml:"momentum_97" json:"momentum_97"`
	ExplosiveEPS ExplosiveEPS `yaml:"explosive_eps_growth" json:"explosive_eps_growth"`
	UpOnVolume   UpOnVolume   `yaml:"up_on_volume" json:"up_on_volume"`
	TopRS        TopRS        `yaml:"top_2pct_rs" json:"top_2pct_rs"`
	Bullish4     Bullish4     `yaml:"bullish_4pct_yesterday" json:"bullish_4pct_yesterday"`
	HealthyChart HealthyChart `yaml:"healthy_chart_watchlist" json:"healthy_chart_watchlist"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// RSWindow RS STS% 계산 윈도우
type RSWindow struct {
	LookbackBars int `yaml:"lookback_bars" json:"lookback_bars"` // 벤치마크/종목 조회 봉 수
	MinBars      int `yaml:"min_bars" json:"min_bars"`           // 각 시리즈 최소 봉 수
	Days         int `yaml:"days" json:"days"`                   // 조인 후 사용 일수
}

// Momentum97 1M/3M/6M 백분위 순위
type Momentum97 struct {
	MinPercentile float64 `yaml:"min_percentile" json:"min_percentile"`
}

// ExplosiveEPS Explosive EPS Growth
type ExplosiveEPS struct {
	MinRSRating    float64 `yaml:"min_rs_rating" json:"min_rs_rating"`
	MinRSSTS       float64 `yaml:"min_rs_sts" json:"min_rs_sts"`
	MinEPSGrowth   float64 `yaml:"min_eps_growth" json:"min_eps_growth"`
	MinAvgVolume50 float64 `yaml:"min_avg_volume_50" json:"min_avg_volume_50"`
	MinPriceVsMA50 float64 `yaml:"min_price_vs_ma50" json:"min_price_vs_ma50"`
}

// UpOnVolume Up on Volume
type UpOnVolume struct {
	MinRSRating        float64  `yaml:"min_rs_rating" json:"min_rs_rating"`
	MinRSSTS           float64  `yaml:"min_rs_sts" json:"min_rs_sts"`
	ADRatings          []string `yaml:"ad_ratings" json:"ad_ratings"`
	MinPctChange1D     float64  `yaml:"min_pct_change_1d" json:"min_pct_change_1d"`
	MinPrice           float64  `yaml:"min_price" json:"min_price"`
	MinAvgVolume50     float64  `yaml:"min_avg_volume_50" json:"min_avg_volume_50"`
	MinVolumeChangePct float64  `yaml:"min_volume_change_pct" json:"min_volume_change_pct"`
	MinMarketCap       float64  `yaml:"min_market_cap" json:"min_market_cap"`
	MinEPSGrowth       float64  `yaml:"min_eps_growth" json:"min_eps_growth"`
}

// TopRS Top 2% RS
type TopRS struct {
	MinRSRating      float64  `yaml:"min_rs_rating" json:"min_rs_rating"`
	MinRSSTS         float64  `yaml:"min_rs_sts" json:"min_rs_sts"`
	MinAvgVolume50   float64  `yaml:"min_avg_volume_50" json:"min_avg_volume_50"`
	MinCurrentVolume float64  `yaml:"min_current_volume" json:"min_current_volume"`
	ExcludeSectors   []string `yaml:"exclude_sectors" json:"exclude_sectors"` // 대소문자 무시 부분 문자열
}

// Bullish4 4% Bullish Yesterday
// 이 스크리너의 가격 외 조건은 모두 초과(>) 비교
type Bullish4 struct {
	MinPrice          float64 `yaml:"min_price" json:"min_price"` // >=
	MinPctChange1D    float64 `yaml:"min_pct_change_1d" json:"min_pct_change_1d"`
	MinChangeFromOpen float64 `yaml:"min_change_from_open" json:"min_change_from_open"`
	MinCurrentVolume  float64 `yaml:"min_current_volume" json:"min_current_volume"`
	MinRelativeVolume float64 `yaml:"min_relative_volume" json:"min_relative_volume"`
	MinAvgVolume90    float64 `yaml:"min_avg_volume_90" json:"min_avg_volume_90"`
	MinMarketCap      float64 `yaml:"min_market_cap" json:"min_market_cap"`
	MinRSSTS          float64 `yaml:"min_rs_sts" json:"min_rs_sts"` // >=
}

// HealthyChart Healthy Chart Watchlist
type HealthyChart struct {
	MinRSRating       float64  `yaml:"min_rs_rating" json:"min_rs_rating"`
	MinCompRating     float64  `yaml:"min_comp_rating" json:"min_comp_rating"`
	ADRatings         []string `yaml:"ad_ratings" json:"ad_ratings"`
	MinPriceVs52wHigh float64  `yaml:"min_price_vs_52w_high" json:"min_price_vs_52w_high"` // RS 신고가 대용
	MinAvgVolume50    float64  `yaml:"min_avg_volume_50" json:"min_avg_volume_50"`
}

// Default returns the standard IBD screener thresholds
func Default() *Config {
	return &Config{
		Meta: Meta{ConfigID: "ibd_screeners", Version: "1"},
		RS:   RSWindow{LookbackBars: 30, MinBars: 25, Days: 25},
		Momentum97: Momentum97{
			MinPercentile: 97,
		},
		ExplosiveEPS: ExplosiveEPS{
			MinRSRating:    80,
			MinRSSTS:       80,
			MinEPSGrowth:   100,
			MinAvgVolume50: 100,
			MinPriceVsMA50: 0,
		},
		UpOnVolume: UpOnVolume{
			MinRSRating:        80,
			MinRSSTS:           80,
			ADRatings:          []string{"A", "B", "C"},
			MinPctChange1D:     0,
			MinPrice:           10,
			MinAvgVolume50:     100,
			MinVolumeChangePct: 20,
			MinMarketCap:       250_000_000,
			MinEPSGrowth:       20,
		},
		TopRS: TopRS{
			MinRSRating:      98,
			MinRSSTS:         80,
			MinAvgVolume50:   100,
			MinCurrentVolume: 100,
			ExcludeSectors:   []string{"healthcare", "medical"},
		},
		Bullish4: Bullish4{
			MinPrice:          1,
			MinPctChange1D:    4,
			MinChangeFromOpen: 0,
			MinCurrentVolume:  100,
			MinRelativeVolume: 1,
			MinAvgVolume90:    100,
			MinMarketCap:      250_000_000,
			MinRSSTS:          80,
		},
		HealthyChart: HealthyChart{
			MinRSRating:       90,
			MinCompRating:     80,
			ADRatings:         []string{"A", "B"},
			MinPriceVs52wHigh: -5,
			MinAvgVolume50:    100,
		},
	}
}
