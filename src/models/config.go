package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Redis     MRedisConfig     `yaml:"redis"`
	Feed      MFeedConfig      `yaml:"feed"`
	Levels    MLevelsConfig    `yaml:"levels"`
	Synthetic MSyntheticConfig `yaml:"synthetic"`
}

type MRedisConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	DB             int    `yaml:"db"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type MFeedConfig struct {
	Symbols        []string `yaml:"symbols"`
	PollIntervalMs int      `yaml:"poll_interval_ms"`
	SessionAware   bool     `yaml:"session_aware"`
}

type MLevelsConfig struct {
	Margin          int     `yaml:"margin"`
	MaxLevels       int     `yaml:"max_levels"`
	MinPipsDistance float64 `yaml:"min_pips_distance"`
}

type MSyntheticConfig struct {
	Bars int `yaml:"bars"`
}
