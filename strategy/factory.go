package strategy

import "fmt"

// Strategy variant names accepted in config.
const (
	KindTrendFollowing = "trend_following"
	KindMeanReversion  = "mean_reversion"
)

// Config 描述单个交易对的策略变体与参数，进程生命周期内不变。
type Config struct {
	Kind string `yaml:"kind"`

	// trend_following
	EMAWindow    int     `yaml:"emaWindow"`
	ADXWindow    int     `yaml:"adxWindow"`
	ADXThreshold float64 `yaml:"adxThreshold"`

	// mean_reversion
	Window    int     `yaml:"window"`
	NumStdDev float64 `yaml:"numStdDev"`
}

// New 根据配置构造对应的评估器；变体在配置期一次性选定。
func New(cfg Config) (Evaluator, error) {
	switch cfg.Kind {
	case KindTrendFollowing:
		return NewTrendFollowing(cfg.EMAWindow, cfg.ADXWindow, cfg.ADXThreshold)
	case KindMeanReversion:
		return NewMeanReversion(cfg.Window, cfg.NumStdDev)
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", cfg.Kind)
	}
}
