// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	WebhookSecret           string `yaml:"webhook_secret" env:"WEBHOOK_SECRET"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	WooCommerce             `yaml:"woocommerce"`
	Rabbit                  `yaml:"rabbit"`
	Admin                   `yaml:"admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном администратора
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// WooCommerce структура для подключения к REST API коммерческой платформы
type WooCommerce struct {
	BaseURL        string        `yaml:"base_url" env:"WOOCOMMERCE_BASE_URL"`
	ConsumerKey    string        `yaml:"consumer_key" env:"WOOCOMMERCE_CONSUMER_KEY"`
	ConsumerSecret string        `yaml:"consumer_secret" env:"WOOCOMMERCE_CONSUMER_SECRET"`
	TimeoutAPI     time.Duration `yaml:"timeoutapi" env-default:"10s"`
}

// Rabbit структура для настройки очереди недоставленных номеров
type Rabbit struct {
	URL           string `yaml:"url" env:"RABBIT_URL"`
	Exchange      string `yaml:"exchange" env-default:"subscriptions"`
	DeadLetterKey string `yaml:"dead_letter_key" env-default:"fulfillment.failed"`
}

// Admin структура с учётными данными администратора модуля
type Admin struct {
	Username     string `yaml:"username" env:"ADMIN_USERNAME"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
}

// MustLoad функция для загрузки конфига, путь берётся из переменной CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
