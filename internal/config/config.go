package config

import (
	"time"

	"github.com/spf13/viper"

	"nextearnx/pkg/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	WalletEvents string `mapstructure:"wallet_events"`
	LifafaEvents string `mapstructure:"lifafa_events"`
}

// BusinessConfig carries the product rules that the settings table does not
// own: limits, OTP/session lifetimes and outbox retry policy.
type BusinessConfig struct {
	MinLifafaTotal    float64       `mapstructure:"min_lifafa_total"`
	MinTransfer       float64       `mapstructure:"min_transfer"`
	MaxDailyTransfer  float64       `mapstructure:"max_daily_transfer"`
	MinWithdrawal     float64       `mapstructure:"min_withdrawal"`
	ReferralBonus     float64       `mapstructure:"referral_bonus"`
	SignupOTPTTL      time.Duration `mapstructure:"signup_otp_ttl"`
	SettingsOTPTTL    time.Duration `mapstructure:"settings_otp_ttl"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	MaxRetryCount     int           `mapstructure:"max_retry_count"`
	MaxGlobalChannels int           `mapstructure:"max_global_channels"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

var GlobalConfig *Config

func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("business.min_lifafa_total", 10)
	viper.SetDefault("business.min_transfer", 1)
	viper.SetDefault("business.max_daily_transfer", 100)
	viper.SetDefault("business.min_withdrawal", 50)
	viper.SetDefault("business.referral_bonus", 5)
	viper.SetDefault("business.signup_otp_ttl", "60s")
	viper.SetDefault("business.settings_otp_ttl", "5m")
	viper.SetDefault("business.session_ttl", "24h")
	viper.SetDefault("business.max_retry_count", 3)
	viper.SetDefault("business.max_global_channels", 4)

	if err := viper.ReadInConfig(); err != nil {
		logger.Fatalf("failed to read config file: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		logger.Fatalf("failed to parse config file: %v", err)
	}

	GlobalConfig = config
	return config
}
