package config

import (
	"os"
	"strconv"

	"iwled/internal/led"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read, if present, before runtime settings are taken from the environment.
const DefaultEnvFile = "/etc/iwled/iwled.env"

// RedisConfig Redis status sink settings
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string // e.g. "iwled:client:"
}

// MQTTConfig MQTT status sink settings
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	TopicPrefix string // e.g. "iwled"
}

// Config holds process-level settings. The monitoring rules themselves come
// from the INI file, see Load.
type Config struct {
	LEDClassDir string

	Redis RedisConfig
	MQTT  MQTTConfig

	Log struct {
		Level  string
		Format string
	}
}

// LoadRuntime loads runtime settings from the environment. Status sinks stay
// disabled unless MQTT_BROKER or REDIS_ADDR is set.
func LoadRuntime() (*Config, error) {
	envFile := getEnv("IWLED_ENV_FILE", DefaultEnvFile)
	if _, err := os.Stat(envFile); err == nil {
		// existing variables win over the file
		if err := godotenv.Load(envFile); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.LEDClassDir = getEnv("LED_CLASS_DIR", led.DefaultClassDir)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "iwled-"+uuid.NewString()[:8])
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "iwled")
	cfg.MQTT.QoS = 0

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", "iwled:client:")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "console")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
