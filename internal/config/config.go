package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	UpstreamBaseURL    string // Базовый URL API заказов (https://men4u.xyz)
	RedisURL           string
	RedisSentinelAddrs []string // Адреса Sentinel (через запятую)
	RedisMasterName    string   // Имя мастера в Sentinel
	ServerPort         string
	Environment        string
	// Интервал опроса доски заказов. Дизайн допускает 1с..60с — значения вне
	// диапазона зажимаются, чтобы не заспамить бекенд и не потерять живость
	PollInterval time.Duration
	// Часовой пояс ресторана: date_time заказов приходит серверно-локальной
	// строкой без зоны, парсим ее в этой зоне
	RestaurantTimezone string
	// FCM токен для verify_otp (у headless-моста пушей нет, шлем заглушку)
	FCMToken    string
	DeviceModel string // device_model для verify_otp
}

const (
	MinPollInterval = 1 * time.Second
	MaxPollInterval = 60 * time.Second
)

func Load() *Config {
	// Redis может приходить под разными именами переменных (Railway и т.п.)
	// Проверяем в порядке приоритета: REDIS_URL, REDISCLOUD_URL, REDISHOST (сборка из частей)
	redisURL := getEnv("REDIS_URL", "")
	if redisURL == "" {
		redisURL = getEnv("REDISCLOUD_URL", "")
	}
	// Если нет полного URL, пытаемся собрать из отдельных переменных
	if redisURL == "" {
		redisHost := getEnv("REDISHOST", "")
		redisPort := getEnv("REDISPORT", "6379")
		redisPassword := getEnv("REDISPASSWORD", "")
		redisDB := getEnv("REDISDB", "0")

		if redisHost != "" {
			if redisPassword != "" {
				redisURL = fmt.Sprintf("redis://:%s@%s:%s/%s", redisPassword, redisHost, redisPort, redisDB)
			} else {
				redisURL = fmt.Sprintf("redis://%s:%s/%s", redisHost, redisPort, redisDB)
			}
		}
	}
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0" // Fallback
	}

	// Redis Sentinel настройки
	sentinelAddrsStr := getEnv("REDIS_SENTINEL_ADDRS", "")
	var sentinelAddrs []string
	if sentinelAddrsStr != "" {
		sentinelAddrs = strings.Split(sentinelAddrsStr, ",")
		for i := range sentinelAddrs {
			sentinelAddrs[i] = strings.TrimSpace(sentinelAddrs[i])
		}
	}

	masterName := getEnv("REDIS_MASTER_NAME", "")
	if masterName == "" {
		masterName = "mymaster" // Дефолтное значение
	}

	// Интервал опроса: по умолчанию 10 секунд, зажимаем в [1с, 60с]
	pollInterval := time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)) * time.Second
	if pollInterval < MinPollInterval {
		pollInterval = MinPollInterval
	}
	if pollInterval > MaxPollInterval {
		pollInterval = MaxPollInterval
	}

	return &Config{
		UpstreamBaseURL:    strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://men4u.xyz"), "/"),
		RedisURL:           redisURL,
		RedisSentinelAddrs: sentinelAddrs,
		RedisMasterName:    masterName,
		ServerPort:         getEnv("PORT", "8080"),
		Environment:        getEnv("ENV", "development"),
		PollInterval:       pollInterval,
		RestaurantTimezone: getEnv("RESTAURANT_TIMEZONE", "Asia/Kolkata"), // Бекенд шлет локальное время без зоны
		FCMToken:           getEnv("FCM_TOKEN", "dummy_fcm_token"),
		DeviceModel:        getEnv("DEVICE_MODEL", "kds_bridge"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
