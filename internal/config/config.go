package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type RewardConfig struct {
	Env string `yaml:"env"`
	HTTPServer
	RewardDB
	LogConfig
	KafkaService
	Shopify
	Messaging
	Scheduler
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type RewardDB struct {
	Dsn string `yaml:"dsn"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type KafkaService struct {
	Host  string `yaml:"host"`
	Port  string `yaml:"port"`
	Topic string `yaml:"topic" env-default:"reward-lifecycle-events"`
}

type Shopify struct {
	ShopDomain  string        `yaml:"shop_domain"`
	AccessToken string        `yaml:"access_token" env:"SHOPIFY_ACCESS_TOKEN"`
	APIVersion  string        `yaml:"api_version" env-default:"2024-01"`
	Timeout     time.Duration `yaml:"timeout" env-default:"15s"`
}

type Messaging struct {
	Email EmailProvider `yaml:"email"`
	SMS   SMSProvider   `yaml:"sms"`
}

type EmailProvider struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key" env:"EMAIL_API_KEY"`
	From     string `yaml:"from"`
}

type SMSProvider struct {
	Endpoint   string `yaml:"endpoint"`
	AccountSID string `yaml:"account_sid" env:"SMS_ACCOUNT_SID"`
	AuthToken  string `yaml:"auth_token" env:"SMS_AUTH_TOKEN"`
	From       string `yaml:"from"`
}

type Scheduler struct {
	TickInterval      time.Duration `yaml:"tick_interval" env-default:"1h"`
	WarningWindowDays int           `yaml:"warning_window_days" env-default:"3"`
	Workers           int           `yaml:"workers" env-default:"4"`
	ExternalTimeout   time.Duration `yaml:"external_timeout" env-default:"15s"`
}

func MustLoad() *RewardConfig {

	// Processing env config variable and file
	configPath := os.Getenv("REWARD_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("REWARD_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg RewardConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
