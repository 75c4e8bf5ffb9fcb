package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	DBDriver   string // mysql | sqlite
	MySQLDSN   string
	SQLitePath string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	ModelPath     string
	DictDir       string
	LexiconPath   string
	StopwordsPath string
	Stemmer       string

	SearchTopK     int
	SearchMaxTopK  int
	MinScore       float64
	WeightSemantic float64
	WeightKeyword  float64
	WeightRecency  float64
	WeightRating   float64
	HistoryTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	Workers       int
	CorpusCSV     string
	PricesCSV     string
	FacilitiesCSV string
	PlacesCSV     string
}

// Load reads the environment. A .env file in the working directory (or the
// file named by ENV_FILE) is applied first without overriding real env vars.
func Load() Config {
	envFile := env("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("file", envFile).Msg("could not read env file")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("invalid number, using default")
		}
		return def
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		DBDriver:   strings.ToLower(env("DB_DRIVER", "sqlite")),
		MySQLDSN:   env("MYSQL_DSN", "root:root@tcp(localhost:3306)/carikemah?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		SQLitePath: env("SQLITE_PATH", "file:carikemah.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		ModelPath:     env("MODEL_PATH", "data/word2vec.txt"),
		DictDir:       env("DICT_DIR", "config/dict"),
		LexiconPath:   env("LEXICON_PATH", ""),
		StopwordsPath: env("STOPWORDS_PATH", ""),
		Stemmer:       env("STEMMER", "none"),

		SearchTopK:     atoi("SEARCH_TOP_K", 10),
		SearchMaxTopK:  atoi("SEARCH_MAX_TOP_K", 100),
		MinScore:       atof("SEARCH_MIN_SCORE", 0.15),
		WeightSemantic: atof("SEARCH_WEIGHT_SEMANTIC", 0.3),
		WeightKeyword:  atof("SEARCH_WEIGHT_KEYWORD", 0.7),
		WeightRecency:  atof("SEARCH_WEIGHT_RECENCY", 0),
		WeightRating:   atof("SEARCH_WEIGHT_RATING", 0),
		HistoryTimeout: time.Duration(atoi("HISTORY_TIMEOUT_MS", 2000)) * time.Millisecond,
		RateLimitRPS:   atof("RATE_LIMIT_RPS", 20),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 40),

		Workers:       atoi("INGEST_WORKERS", 8),
		CorpusCSV:     env("INGEST_CORPUS_CSV", "data/corpus.csv"),
		PricesCSV:     env("INGEST_PRICES_CSV", ""),
		FacilitiesCSV: env("INGEST_FACILITIES_CSV", ""),
		PlacesCSV:     env("INGEST_PLACES_CSV", ""),
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "mysql" {
		return c.MySQLDSN
	}
	return c.SQLitePath
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
