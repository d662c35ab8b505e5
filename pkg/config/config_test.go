package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "0.18", cfg.Sales.TaxRate)
	assert.Equal(t, 24*time.Hour, cfg.Sales.AnnulWindow)
	assert.Equal(t, 30*24*time.Hour, cfg.Sales.ReturnWindow)
	assert.Equal(t, 0.25, cfg.Alerts.HighRatio)
	assert.Equal(t, 0.5, cfg.Alerts.MediumRatio)
	assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.EqualValues(t, 25, cfg.DB.MaxConns)
	assert.False(t, cfg.DB.ForceIPv4)
}

func TestFromViper_SobrescribeDesdeEnv(t *testing.T) {
	v := viper.New()
	v.Set("SALES_TAX_RATE", "0.19")
	v.Set("SALE_ANNUL_WINDOW_HOURS", "12")
	v.Set("RETURN_WINDOW_DAYS", "15")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("ALERT_HIGH_RATIO", "0.2")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "0.19", cfg.Sales.TaxRate)
	assert.Equal(t, 12*time.Hour, cfg.Sales.AnnulWindow)
	assert.Equal(t, 15*24*time.Hour, cfg.Sales.ReturnWindow)
	assert.Equal(t, 0.2, cfg.Alerts.HighRatio)
	assert.True(t, cfg.Redis.Enabled())
}

func TestFromViper_TasaInvalida(t *testing.T) {
	v := viper.New()
	v.Set("SALES_TAX_RATE", "dieciocho")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "boutique", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/boutique?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}

func TestFromViper_PoolInvalido(t *testing.T) {
	v := viper.New()
	v.Set("DB_MAX_CONNS", "4")
	v.Set("DB_MIN_CONNS", "8")

	_, err := fromViper(v)
	assert.Error(t, err)

	v.Set("DB_MIN_CONNS", "1")
	v.Set("DB_FORCE_IPV4", "true")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.True(t, cfg.DB.ForceIPv4)
}
