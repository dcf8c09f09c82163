package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:         "development",
			Port:        "8375",
			JWTSecret:   "secure-secret-at-least-32-chars-long",
			StoreDriver: "badger",
			StorePath:   "./data/academia",
			DBPassword:  "secure-password",
			DBSSLMode:   "disable",
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown store driver", func(c *Config) { c.StoreDriver = "mongo" }, true},
		{"badger without path", func(c *Config) { c.StorePath = "" }, true},
		{"sqlite driver allowed", func(c *Config) { c.StoreDriver = "sqlite"; c.StorePath = "" }, false},
		{"production default secret rejected", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"production short secret rejected", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"production postgres weak password rejected", func(c *Config) {
			c.Env = "production"
			c.StoreDriver = "postgres"
			c.DBPassword = "password"
		}, true},
		{"production postgres strong password accepted", func(c *Config) {
			c.Env = "production"
			c.StoreDriver = "postgres"
			c.DBSSLMode = "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_PostgresDSN(t *testing.T) {
	c := &Config{
		DBHost:     "db.internal",
		DBPort:     "5433",
		DBUser:     "academia",
		DBPassword: "hunter2-but-longer",
		DBName:     "academia",
		DBSSLMode:  "require",
	}

	dsn := c.PostgresDSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "dbname=academia")
	assert.Contains(t, dsn, "sslmode=require")
}
