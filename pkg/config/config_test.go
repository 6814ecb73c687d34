package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Transporte-api/pkg/config"
)

// clearEnv deja vacías las claves; viper ignora las variables vacías y aplica el valor por defecto.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_ValoresPorDefecto(t *testing.T) {
	clearEnv(t, "STORE_DRIVER", "DB_PORT", "DB_MAX_CONNS", "UPLOAD_MAX_BYTES", "UPLOAD_STRICT_RUC", "UPLOAD_EMAIL_DOMAINS", "JWT_EXPIRATION_MINUTES")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StorePostgres, cfg.Store.Driver)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 10<<20, cfg.Upload.MaxBytes)
	assert.False(t, cfg.Upload.StrictRUC)
	assert.Empty(t, cfg.Upload.EmailDomains)
	assert.Equal(t, 60, cfg.JWT.Expiration)
}

func TestLoad_EntornoTienePrioridad(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("UPLOAD_MAX_BYTES", "2048")
	t.Setenv("UPLOAD_STRICT_RUC", "true")
	t.Setenv("UPLOAD_EMAIL_DOMAINS", " DRTC.gob.pe, ,empresa.pe ")
	t.Setenv("JWT_SECRET", "s3creto")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, 2048, cfg.Upload.MaxBytes)
	assert.True(t, cfg.Upload.StrictRUC)
	assert.Equal(t, []string{"drtc.gob.pe", "empresa.pe"}, cfg.Upload.EmailDomains)
	assert.Equal(t, "s3creto", cfg.JWT.Secret)
}

func TestLoad_RechazaValoresInvalidos(t *testing.T) {
	t.Run("driver desconocido", func(t *testing.T) {
		clearEnv(t, "UPLOAD_MAX_BYTES")
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := config.Load()
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})
	t.Run("límite de carga no positivo", func(t *testing.T) {
		clearEnv(t, "STORE_DRIVER")
		t.Setenv("UPLOAD_MAX_BYTES", "-1")
		_, err := config.Load()
		assert.ErrorContains(t, err, "UPLOAD_MAX_BYTES")
	})
}
