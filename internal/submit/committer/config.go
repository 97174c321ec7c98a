package committer

import "scoutly/internal/common/config"

type Config struct {
	// CompensateOrphans deletes the uploaded object when a later step fails.
	CompensateOrphans bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{CompensateOrphans: cfg.Storage.CompensateOrphans}
}
