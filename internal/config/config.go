package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Tier связывает точную сумму платежа (в Stars) с длительностью подписки в днях.
type Tier struct {
	Amount int64 `mapstructure:"amount"`
	Days   int   `mapstructure:"days"`
}

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Database struct {
		DSN string `mapstructure:"dsn"` // Пустой DSN - работаем на in-memory хранилище
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Payments struct {
		// Код внутренней валюты платформы. Сравнивается строго, с учетом регистра.
		Currency string `mapstructure:"currency"`
		// Включительные границы суммы платежа в минимальных единицах валюты.
		MinAmount int64 `mapstructure:"minAmount"`
		MaxAmount int64 `mapstructure:"maxAmount"`
		// Предложение по умолчанию, используется при выставлении инвойса.
		DefaultAmount       int64 `mapstructure:"defaultAmount"`
		DefaultDurationDays int   `mapstructure:"defaultDurationDays"`
		// Таблица соответствия суммы и длительности подписки.
		Tiers []Tier `mapstructure:"tiers"`
	} `mapstructure:"payments"`
}

// LoadConfig загружает конфигурацию из файла и переменных окружения.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// .env не обязателен, отсутствие файла не ошибка
		_ = godotenv.Load(path)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("payments.currency", "XTR")
	viper.SetDefault("payments.minAmount", 1)
	viper.SetDefault("payments.maxAmount", 2500)
	viper.SetDefault("payments.defaultAmount", 10)
	viper.SetDefault("payments.defaultDurationDays", 1)
	viper.SetDefault("kafka.topic", "entitlement_granted")

	viper.AutomaticEnv() // Чтение переменных окружения

	if err := viper.ReadInConfig(); err != nil {
		// Отсутствие config.yml не ошибка: значения по умолчанию и env достаточны
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate проверяет согласованность платежных параметров.
func (c *Config) validate() error {
	p := c.Payments
	if p.Currency == "" {
		return fmt.Errorf("config: payments.currency is required")
	}
	if p.MinAmount < 1 || p.MaxAmount < p.MinAmount {
		return fmt.Errorf("config: invalid payment bounds [%d, %d]", p.MinAmount, p.MaxAmount)
	}
	if p.DefaultDurationDays < 1 {
		return fmt.Errorf("config: payments.defaultDurationDays must be positive")
	}
	for _, t := range p.Tiers {
		if t.Amount < p.MinAmount || t.Amount > p.MaxAmount {
			return fmt.Errorf("config: tier amount %d outside payment bounds", t.Amount)
		}
		if t.Days < 1 {
			return fmt.Errorf("config: tier for amount %d has non-positive duration", t.Amount)
		}
	}
	return nil
}

// DurationDaysForAmount возвращает длительность подписки для точной суммы платежа.
// Если сумма не найдена в таблице тарифов, возвращается длительность по умолчанию.
func (c *Config) DurationDaysForAmount(amount int64) int {
	for _, t := range c.Payments.Tiers {
		if t.Amount == amount {
			return t.Days
		}
	}
	return c.Payments.DefaultDurationDays
}
