package env

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ListenAddr         = "LISTEN_ADDR"
	AppEnv             = "APP_ENV"
	LogLevel           = "LOG_LEVEL"
	AWSRegion          = "AWS_REGION"
	AWSID              = "AWS_ID"
	AWSSecret          = "AWS_SECRET"
	AWSToken           = "AWS_TOKEN"
	DynamoDBEndpoint   = "DYNAMODB_ENDPOINT"
	RoomsTable         = "ROOMS_TABLE"
	LobbyRedisURL      = "LOBBY_REDIS_URL"
	LobbyRedisPass     = "LOBBY_REDIS_PASS"
	LobbyEventsChannel = "LOBBY_EVENTS_CHANNEL"
	AdminSecretKey     = "ADMIN_SECRET"
	AllowedOrigins     = "ALLOWED_ORIGINS"
	RoomIdleTimeout    = "ROOM_IDLE_TIMEOUT"
	RoomSweepInterval  = "ROOM_SWEEP_INTERVAL"
	JoinTokenTTL       = "JOIN_TOKEN_TTL"
	RateLimitMax       = "RATE_LIMIT_MAX"
	RateLimitWindow    = "RATE_LIMIT_WINDOW"
)

// Load reads an optional .env file into the process environment. Variables
// that are already set win over the file.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}

func GetInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// GetDuration accepts Go duration strings ("90s", "2m") or a bare number of seconds.
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

// GetList splits a comma separated variable, dropping empty entries.
func GetList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	raw := strings.Split(val, ",")
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
