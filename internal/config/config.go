package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // sslmode（ローカルはdisable）

	JWTSecret string // 内部API（管理系）のJWT署名シークレット

	PaymentProviderURL string        // 決済プロバイダのベースURL
	PaymentProviderKey string        // 決済プロバイダのAPIキー
	PaymentTimeout     time.Duration // プロバイダ呼び出しのタイムアウト
	WebhookSecret      string        // Webhook署名検証の共有シークレット

	Currency string // 通貨コード（USDなど）

	KafkaBrokers []string // 注文イベントの配信先（空なら配信しない）

	LogLevel string // zerologのレベル（debug/info/warn…）
	GoEnv    string // dev/prod
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenvDefault("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		PaymentProviderURL: os.Getenv("PAYMENT_PROVIDER_URL"),
		PaymentProviderKey: os.Getenv("PAYMENT_PROVIDER_KEY"),
		PaymentTimeout:     10 * time.Second,
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),

		Currency: getenvDefault("CURRENCY", "USD"),

		LogLevel: getenvDefault("LOG_LEVEL", "info"),
		GoEnv:    os.Getenv("GO_ENV"),
	}

	if v := os.Getenv("PAYMENT_TIMEOUT"); v != "" {
		d, derr := time.ParseDuration(v)
		if derr != nil {
			return Config{}, fmt.Errorf("PAYMENT_TIMEOUT must be duration: %w", derr)
		}
		cfg.PaymentTimeout = d
	}

	// KAFKA_BROKERSはカンマ区切り。未設定ならイベント配信なしで動く。
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentProviderURL == "" {
		return Config{}, fmt.Errorf("PAYMENT_PROVIDER_URL is required")
	}
	if cfg.PaymentProviderKey == "" {
		return Config{}, fmt.Errorf("PAYMENT_PROVIDER_KEY is required")
	}
	if cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenvDefault(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
