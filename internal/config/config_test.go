package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Payments.Currency = "XTR"
	cfg.Payments.MinAmount = 1
	cfg.Payments.MaxAmount = 2500
	cfg.Payments.DefaultAmount = 10
	cfg.Payments.DefaultDurationDays = 1
	cfg.Payments.Tiers = []Tier{
		{Amount: 10, Days: 1},
		{Amount: 150, Days: 30},
	}
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().validate())

	t.Run("missing currency", func(t *testing.T) {
		cfg := validConfig()
		cfg.Payments.Currency = ""
		assert.Error(t, cfg.validate())
	})

	t.Run("inverted bounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.Payments.MinAmount = 100
		cfg.Payments.MaxAmount = 10
		assert.Error(t, cfg.validate())
	})

	t.Run("zero min amount", func(t *testing.T) {
		cfg := validConfig()
		cfg.Payments.MinAmount = 0
		assert.Error(t, cfg.validate())
	})

	t.Run("tier outside bounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.Payments.Tiers = []Tier{{Amount: 5000, Days: 30}}
		assert.Error(t, cfg.validate())
	})

	t.Run("tier with zero duration", func(t *testing.T) {
		cfg := validConfig()
		cfg.Payments.Tiers = []Tier{{Amount: 10, Days: 0}}
		assert.Error(t, cfg.validate())
	})
}

func TestDurationDaysForAmount(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 1, cfg.DurationDaysForAmount(10))
	assert.Equal(t, 30, cfg.DurationDaysForAmount(150))

	// Сумма вне тарифной таблицы дает длительность по умолчанию
	assert.Equal(t, 1, cfg.DurationDaysForAmount(77))
}
