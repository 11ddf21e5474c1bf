package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Secrets never have code defaults and must come from the config file or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for view caching and the shared token blacklist
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// HTTP hardening
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Check-in reward policy. DailyRewardPoints is indexed by streak day
	// (day 1 first); streaks past the end of the table earn the last entry.
	// MilestoneDays and MilestonePoints are parallel ascending lists.
	DailyRewardPoints []int
	MilestoneDays     []int
	MilestonePoints   []int
	// Day boundary policy: minutes east of UTC for the calendar-day cutover.
	DayBoundaryUTCOffsetMin int
	// Calendar query bounds and pagination cap
	CalendarMinYear int
	CalendarMaxYear int
	MaxPageSize     int
	// View cache TTL in seconds (status/statistics/calendar)
	ViewCacheTTLSec int
}

var cfg AppConfig
var loaded bool

// Load reads configuration once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Fatalf("invalid config/config.json: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}
	if len(cfg.MilestoneDays) != len(cfg.MilestonePoints) {
		log.Fatal("MilestoneDays and MilestonePoints must have the same length")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// loadJSONConfig reads the JSON file into out if present.
// A missing file is not an error; invalid JSON is.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		switch t := m[key].(type) {
		case float64:
			return int(t)
		case int:
			return t
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}
	getIntSlice := func(m map[string]any, key string) []int {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]int, 0, len(arr))
		for _, it := range arr {
			if f, ok := it.(float64); ok {
				res = append(res, int(f))
			}
		}
		return res
	}

	if app, ok := raw["app"]; ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if g, ok := raw["gin"]; ok {
		if v := getString(g, "Mode"); v != "" {
			out.GinMode = v
		}
		if v := getString(g, "LogPath"); v != "" {
			out.GinPath = v
		}
	}

	if dbs, ok := raw["database"]; ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"]; ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"]; ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	if ck, ok := raw["checkin"]; ok {
		if list := getIntSlice(ck, "DailyRewardPoints"); len(list) > 0 {
			out.DailyRewardPoints = list
		}
		if list := getIntSlice(ck, "MilestoneDays"); len(list) > 0 {
			out.MilestoneDays = list
		}
		if list := getIntSlice(ck, "MilestonePoints"); len(list) > 0 {
			out.MilestonePoints = list
		}
		if v := getInt(ck, "DayBoundaryUTCOffsetMin"); v != 0 {
			out.DayBoundaryUTCOffsetMin = v
		}
		if v := getInt(ck, "CalendarMinYear"); v != 0 {
			out.CalendarMinYear = v
		}
		if v := getInt(ck, "CalendarMaxYear"); v != 0 {
			out.CalendarMaxYear = v
		}
		if v := getInt(ck, "MaxPageSize"); v != 0 {
			out.MaxPageSize = v
		}
		if v := getInt(ck, "ViewCacheTTLSec"); v != 0 {
			out.ViewCacheTTLSec = v
		}
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "bidmarket_checkin"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if len(c.DailyRewardPoints) == 0 {
		c.DailyRewardPoints = []int{5, 10, 15, 20, 25, 30, 40}
	}
	if len(c.MilestoneDays) == 0 {
		c.MilestoneDays = []int{7, 15, 30, 60, 100, 365}
	}
	if len(c.MilestonePoints) == 0 {
		c.MilestonePoints = []int{50, 100, 200, 500, 1000, 5000}
	}
	if c.CalendarMinYear == 0 {
		c.CalendarMinYear = 2020
	}
	if c.CalendarMaxYear == 0 {
		c.CalendarMaxYear = 2100
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = 100
	}
	if c.ViewCacheTTLSec == 0 {
		c.ViewCacheTTLSec = 60
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := os.Getenv("APP_PORT"); v != "" {
		c.AppPort = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.GinMode = v
	}
	if v := os.Getenv("GIN_PATH"); v != "" {
		c.GinPath = v
	}
	if v := os.Getenv("DATABASE_URI"); v != "" {
		c.DatabaseURI = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.DBHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		c.DBPort = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.DBUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.DBPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.DBName = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("LOG_MAX_SIZE_MB"); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := os.Getenv("LOG_MAX_BACKUPS"); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := os.Getenv("LOG_MAX_AGE_DAYS"); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "true"
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("CHECKIN_DAILY_REWARD_POINTS"); v != "" {
		c.DailyRewardPoints = mustParseIntList(v)
	}
	if v := os.Getenv("CHECKIN_MILESTONE_DAYS"); v != "" {
		c.MilestoneDays = mustParseIntList(v)
	}
	if v := os.Getenv("CHECKIN_MILESTONE_POINTS"); v != "" {
		c.MilestonePoints = mustParseIntList(v)
	}
	if v := os.Getenv("CHECKIN_UTC_OFFSET_MIN"); v != "" {
		c.DayBoundaryUTCOffsetMin = mustParseInt(v)
	}
	if v := os.Getenv("CHECKIN_CALENDAR_MIN_YEAR"); v != "" {
		c.CalendarMinYear = mustParseInt(v)
	}
	if v := os.Getenv("CHECKIN_CALENDAR_MAX_YEAR"); v != "" {
		c.CalendarMaxYear = mustParseInt(v)
	}
	if v := os.Getenv("CHECKIN_MAX_PAGE_SIZE"); v != "" {
		c.MaxPageSize = mustParseInt(v)
	}
	if v := os.Getenv("CHECKIN_VIEW_CACHE_TTL_SEC"); v != "" {
		c.ViewCacheTTLSec = mustParseInt(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func mustParseIntList(raw string) []int {
	parts := splitAndTrim(raw)
	res := make([]int, 0, len(parts))
	for _, p := range parts {
		res = append(res, mustParseInt(p))
	}
	return res
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
