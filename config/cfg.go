package config

import (
	"github.com/klaud-0x/klaud-api/internal/envhelper"
)

type AppConfig struct {
	Addr      string        `json:"addr"`
	RedisAddr string        `json:"redis_addr"`
	Quota     QuotaConfig   `json:"quota"`
	Feed      FeedConfig    `json:"feed"`
	Search    SearchConfig  `json:"search"`
	Market    MarketConfig  `json:"market"`
	Repos     ReposConfig   `json:"repos"`
	Extract   ExtractConfig `json:"extract"`
	Drugs     DrugsConfig   `json:"drugs"`
}

type QuotaConfig struct {
	FreeDailyLimit int `json:"free_daily_limit"`
	ProDailyLimit  int `json:"pro_daily_limit"`
}

type FeedConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
	// CandidatePool is how many top stories are fetched before the topic
	// filter is applied.
	CandidatePool int `json:"candidate_pool"`
}

type SearchConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
	AbstractCap  int `json:"abstract_cap"`
}

type MarketConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
}

type ReposConfig struct {
	DefaultLimit   int `json:"default_limit"`
	MaxLimit       int `json:"max_limit"`
	DescriptionCap int `json:"description_cap"`
}

type ExtractConfig struct {
	DefaultMaxChars int `json:"default_max_chars"`
	HardMaxChars    int `json:"hard_max_chars"`
}

type DrugsConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
	// CandidateLimit bounds the target search used for resolution.
	CandidateLimit int `json:"candidate_limit"`
	// OverFetchFactor controls how many mechanism rows are requested per
	// unique drug wanted, to survive deduplication.
	OverFetchFactor int `json:"over_fetch_factor"`
}

// Load reads the gateway configuration from the environment, with defaults
// matching the public deployment.
func Load() AppConfig {
	return AppConfig{
		Addr:      envhelper.GetEnvOrDefault("ADDR", ":8080"),
		RedisAddr: envhelper.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Quota: QuotaConfig{
			FreeDailyLimit: envhelper.GetEnvIntOrDefault("FREE_DAILY_LIMIT", 20),
			ProDailyLimit:  envhelper.GetEnvIntOrDefault("PRO_DAILY_LIMIT", 1000),
		},
		Feed: FeedConfig{
			DefaultLimit:  15,
			MaxLimit:      30,
			CandidatePool: 40,
		},
		Search: SearchConfig{
			DefaultLimit: 5,
			MaxLimit:     10,
			AbstractCap:  envhelper.GetEnvIntOrDefault("ABSTRACT_CAP", 500),
		},
		Market: MarketConfig{
			DefaultLimit: 10,
			MaxLimit:     25,
		},
		Repos: ReposConfig{
			DefaultLimit:   10,
			MaxLimit:       25,
			DescriptionCap: 200,
		},
		Extract: ExtractConfig{
			DefaultMaxChars: 5000,
			HardMaxChars:    envhelper.GetEnvIntOrDefault("EXTRACT_MAX_CHARS", 10000),
		},
		Drugs: DrugsConfig{
			DefaultLimit:    5,
			MaxLimit:        10,
			CandidateLimit:  15,
			OverFetchFactor: 3,
		},
	}
}
