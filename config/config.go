package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr       string `mapstructure:"HTTP_ADDR"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	PublicBaseURL  string `mapstructure:"PUBLIC_BASE_URL"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`

	DBDriver     string `mapstructure:"DB_DRIVER"`
	DB_URL       string `mapstructure:"DB_URL"`
	SeedDefaults bool   `mapstructure:"SEED_DEFAULTS"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTTTL        time.Duration `mapstructure:"JWT_TTL"`
	AdminUsername string        `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string        `mapstructure:"ADMIN_PASSWORD"`

	CashfreeAppID              string `mapstructure:"CASHFREE_APP_ID"`
	CashfreeSecretKey          string `mapstructure:"CASHFREE_SECRET_KEY"`
	CashfreeBaseURL            string `mapstructure:"CASHFREE_BASE_URL"`
	CashfreePayoutBaseURL      string `mapstructure:"CASHFREE_PAYOUT_BASE_URL"`
	CashfreePayoutClientID     string `mapstructure:"CASHFREE_PAYOUT_CLIENT_ID"`
	CashfreePayoutClientSecret string `mapstructure:"CASHFREE_PAYOUT_CLIENT_SECRET"`

	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminChatID      int64  `mapstructure:"ADMIN_CHAT_ID"`

	R2AccountID       string `mapstructure:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `mapstructure:"R2_ACCESS_KEY_SECRET"`
	R2BucketName      string `mapstructure:"R2_BUCKET_NAME"`
	CDNBaseURL        string `mapstructure:"CDN_BASE_URL"`

	MinDeposit    string `mapstructure:"MIN_DEPOSIT"`
	MinWithdrawal string `mapstructure:"MIN_WITHDRAWAL"`
	ReferralRate  string `mapstructure:"REFERRAL_RATE"`
}

func setDefaults() {
	viper.SetDefault("HTTP_ADDR", ":5000")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5000")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:5000")
	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("SEED_DEFAULTS", true)
	viper.SetDefault("JWT_TTL", "24h")
	viper.SetDefault("CASHFREE_BASE_URL", "https://sandbox.cashfree.com/pg")
	viper.SetDefault("CASHFREE_PAYOUT_BASE_URL", "https://payout-gamma.cashfree.com")
	viper.SetDefault("MIN_DEPOSIT", "20")
	viper.SetDefault("MIN_WITHDRAWAL", "100")
	viper.SetDefault("REFERRAL_RATE", "0.07")
	viper.SetDefault("ADMIN_CHAT_ID", 0)

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{
		"DB_URL", "JWT_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD",
		"CASHFREE_APP_ID", "CASHFREE_SECRET_KEY",
		"CASHFREE_PAYOUT_CLIENT_ID", "CASHFREE_PAYOUT_CLIENT_SECRET",
		"TELEGRAM_BOT_TOKEN",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_SECRET", "R2_BUCKET_NAME", "CDN_BASE_URL",
	} {
		viper.SetDefault(key, "")
	}
}

func LoadConfig(path string) (config Config, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("failed to resolve config path: %w", err)
	}

	setDefaults()
	viper.AddConfigPath(filepath.Dir(absPath))
	viper.SetConfigName(filepath.Base(absPath))
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return config, err
	}

	return config, nil
}

func (c Config) validate() error {
	if c.DB_URL == "" {
		return errors.New("DB_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	for name, value := range map[string]string{
		"MIN_DEPOSIT":    c.MinDeposit,
		"MIN_WITHDRAWAL": c.MinWithdrawal,
		"REFERRAL_RATE":  c.ReferralRate,
	} {
		if _, err := decimal.NewFromString(value); err != nil {
			return fmt.Errorf("%s must be a decimal number: %w", name, err)
		}
	}
	return nil
}

// R2Enabled reports whether help-request attachments can be uploaded.
func (c Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2BucketName != ""
}
