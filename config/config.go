package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	CORSOrigins []string

	// Модель
	ModelPath         string
	ModelConfigPath   string
	ModelOutputLayer  string
	ModelURL          string
	ModelMinSizeBytes int64
	ModelInputSize    int
	Threshold         float64
	InferenceTimeout  time.Duration
	ModelFailureLimit int

	// Политика ответа
	FallbackEnabled   bool
	HealthyConfidence float64

	// Входные изображения
	MaxImageBytes     int64
	ImageFetchTimeout time.Duration

	TelegramToken string

	// Хранилища
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioSecure    bool
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		ModelPath:         getEnv("MODEL_PATH", "./model/model_final.onnx"),
		ModelConfigPath:   getEnv("MODEL_CONFIG_PATH", ""),
		ModelOutputLayer:  getEnv("MODEL_OUTPUT_LAYER", "detection_out_final"),
		ModelURL:          getEnv("MODEL_URL", ""),
		ModelMinSizeBytes: int64(getEnvInt("MODEL_MIN_SIZE_BYTES", 1<<20)),
		ModelInputSize:    getEnvInt("MODEL_INPUT_SIZE", 800),
		Threshold:         getEnvFloat("DETECTRON_THRESHOLD", 0.7),
		InferenceTimeout:  getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second),
		ModelFailureLimit: getEnvInt("MODEL_FAILURE_LIMIT", 0),

		FallbackEnabled:   getEnvBool("FALLBACK_ENABLED", true),
		HealthyConfidence: getEnvFloat("HEALTHY_CONFIDENCE", 95.0),

		MaxImageBytes:     int64(getEnvInt("MAX_IMAGE_BYTES", 10<<20)),
		ImageFetchTimeout: getEnvDuration("IMAGE_FETCH_TIMEOUT", 15*time.Second),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 10*time.Minute),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioSecure:    getEnvBool("MINIO_SECURE", false),
	}

	cfg.normalize()
	return cfg, nil
}

// normalize приводит значения к допустимым границам.
func (c *Config) normalize() {
	if c.Threshold <= 0 || c.Threshold > 1 {
		log.Printf("Warning: DETECTRON_THRESHOLD=%.3f is out of (0,1], using 0.7", c.Threshold)
		c.Threshold = 0.7
	}
	// Без находок лист здоров, уверенность в пределах [90, 100].
	if c.HealthyConfidence < 90 || c.HealthyConfidence > 100 {
		log.Printf("Warning: HEALTHY_CONFIDENCE=%.1f is out of [90,100], using 95.0", c.HealthyConfidence)
		c.HealthyConfidence = 95.0
	}
	if c.InferenceTimeout <= 0 {
		c.InferenceTimeout = 30 * time.Second
	}
	if c.ModelInputSize <= 0 {
		c.ModelInputSize = 800
	}
	if c.ModelFailureLimit < 0 {
		c.ModelFailureLimit = 0
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
