package screenconfig

import (
	"fmt"
	"strings"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === RS STS% ===
	rs := cfg.RS
	if rs.LookbackBars <= 0 || rs.MinBars <= 0 || rs.Days <= 0 {
		return ValidationError{"rs_sts", "lookback_bars, min_bars and days must be > 0"}
	}
	if rs.MinBars > rs.LookbackBars {
		return ValidationError{"rs_sts.min_bars", "must be <= lookback_bars"}
	}
	if rs.Days > rs.LookbackBars {
		return ValidationError{"rs_sts.days", "must be <= lookback_bars"}
	}

	// === Percentiles (0, 100] ===
	// 선언 순서대로 검사 (여러 필드가 틀려도 항상 같은 에러)
	percentiles := []numericField{
		{"momentum_97.min_percentile", cfg.Momentum97.MinPercentile},
		{"explosive_eps_growth.min_rs_rating", cfg.ExplosiveEPS.MinRSRating},
		{"explosive_eps_growth.min_rs_sts", cfg.ExplosiveEPS.MinRSSTS},
		{"up_on_volume.min_rs_rating", cfg.UpOnVolume.MinRSRating},
		{"up_on_volume.min_rs_sts", cfg.UpOnVolume.MinRSSTS},
		{"top_2pct_rs.min_rs_rating", cfg.TopRS.MinRSRating},
		{"top_2pct_rs.min_rs_sts", cfg.TopRS.MinRSSTS},
		{"bullish_4pct_yesterday.min_rs_sts", cfg.Bullish4.MinRSSTS},
		{"healthy_chart_watchlist.min_rs_rating", cfg.HealthyChart.MinRSRating},
		{"healthy_chart_watchlist.min_comp_rating", cfg.HealthyChart.MinCompRating},
	}
	for _, f := range percentiles {
		if err := validatePercentile(f.value, f.name); err != nil {
			return err
		}
	}

	// === Letter grades ===
	if err := validateGrades(cfg.UpOnVolume.ADRatings, "up_on_volume.ad_ratings"); err != nil {
		return err
	}
	if err := validateGrades(cfg.HealthyChart.ADRatings, "healthy_chart_watchlist.ad_ratings"); err != nil {
		return err
	}

	// === Non-negative floors ===
	floors := []numericField{
		{"explosive_eps_growth.min_avg_volume_50", cfg.ExplosiveEPS.MinAvgVolume50},
		{"up_on_volume.min_price", cfg.UpOnVolume.MinPrice},
		{"up_on_volume.min_avg_volume_50", cfg.UpOnVolume.MinAvgVolume50},
		{"up_on_volume.min_market_cap", cfg.UpOnVolume.MinMarketCap},
		{"top_2pct_rs.min_avg_volume_50", cfg.TopRS.MinAvgVolume50},
		{"top_2pct_rs.min_current_volume", cfg.TopRS.MinCurrentVolume},
		{"bullish_4pct_yesterday.min_price", cfg.Bullish4.MinPrice},
		{"bullish_4pct_yesterday.min_current_volume", cfg.Bullish4.MinCurrentVolume},
		{"bullish_4pct_yesterday.min_avg_volume_90", cfg.Bullish4.MinAvgVolume90},
		{"bullish_4pct_yesterday.min_market_cap", cfg.Bullish4.MinMarketCap},
		{"healthy_chart_watchlist.min_avg_volume_50", cfg.HealthyChart.MinAvgVolume50},
	}
	for _, f := range floors {
		if f.value < 0 {
			return ValidationError{f.name, "must be >= 0"}
		}
	}

	for i, s := range cfg.TopRS.ExcludeSectors {
		if strings.TrimSpace(s) == "" {
			return ValidationError{fmt.Sprintf("top_2pct_rs.exclude_sectors[%d]", i), "must not be blank"}
		}
	}

	return nil
}

// === Helper Functions ===

type numericField struct {
	name  string
	value float64
}

func validatePercentile(v float64, field string) error {
	if v <= 0 || v > 100 {
		return ValidationError{field, "must be in range (0, 100]"}
	}
	return nil
}

func validateGrades(grades []string, field string) error {
	if len(grades) == 0 {
		return ValidationError{field, "must not be empty"}
	}
	for _, g := range grades {
		if len(g) != 1 || g[0] < 'A' || g[0] > 'E' {
			return ValidationError{field, fmt.Sprintf("invalid grade %q (A~E)", g)}
		}
	}
	return nil
}
