package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity       float64 // 时间重力
	WeightLike    float64
	WeightComment float64
	WeightView    float64
	ScaleFactor   float64
}

var DefaultConfig = RankConfig{
	Gravity:       1.5,
	WeightLike:    1.0,
	WeightComment: 2.0,
	WeightView:    0.01,
	ScaleFactor:   100.0, // 让分数落在 0-100 区间
}

// HotScore ranks a post by weighted interaction, log-smoothed and decayed by
// age in hours.
func HotScore(createdAt time.Time, likes, comments, views int) float64 {
	return hotScore(time.Since(createdAt).Hours(), likes, comments, views)
}

func hotScore(hours float64, likes, comments, views int) float64 {
	if hours < 0 {
		hours = 0
	}
	weightedSum := float64(likes)*DefaultConfig.WeightLike +
		float64(comments)*DefaultConfig.WeightComment +
		float64(views)*DefaultConfig.WeightView
	if weightedSum < 0 {
		weightedSum = 0
	}

	// log10(sum + 1) 保证 sum=0 时结果为 0
	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)
	return numerator / decay
}
