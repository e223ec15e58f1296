package config

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Configuration {
	return Configuration{
		DatabaseName:     "testdb",
		DatabaseHost:     "localhost",
		DatabaseUser:     "postgres",
		DatabasePassword: "password",
		DatabasePort:     5432,
		PoolSize:         5,
		LRUCacheSize:     1000,
		TableName:        "json_objects",
		IDColumn:         "id",
		JSONBColumn:      "json_object",
	}
}

func TestValidate_FixedMessages(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c Configuration) Configuration
		message string
	}{
		{"empty database_name", func(c Configuration) Configuration { c.DatabaseName = ""; return c }, "database_name cannot be empty"},
		{"empty database_host", func(c Configuration) Configuration { c.DatabaseHost = ""; return c }, "database_host cannot be empty"},
		{"zero database_port", func(c Configuration) Configuration { c.DatabasePort = 0; return c }, "database_port must be between 1 and 65535"},
		{"out of range database_port", func(c Configuration) Configuration { c.DatabasePort = 70000; return c }, "database_port must be between 1 and 65535"},
		{"zero pool_size", func(c Configuration) Configuration { c.PoolSize = 0; return c }, "pool_size must be greater than 0"},
		{"excessive pool_size", func(c Configuration) Configuration { c.PoolSize = 10001; return c }, "pool_size exceeds reasonable maximum"},
		{"empty table_name", func(c Configuration) Configuration { c.TableName = ""; return c }, "table_name cannot be empty"},
		{"empty id_column", func(c Configuration) Configuration { c.IDColumn = ""; return c }, "id_column cannot be empty"},
		{"empty jsonb_column", func(c Configuration) Configuration { c.JSONBColumn = ""; return c }, "jsonb_column cannot be empty"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mutate(validConfig()).Validate()
			require.Error(t, err)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestValidate_Identifiers(t *testing.T) {
	t.Run("special characters rejected", func(t *testing.T) {
		c := validConfig()
		c.TableName = "table'; DROP TABLE users; --"
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid character")
	})

	t.Run("leading digit rejected", func(t *testing.T) {
		c := validConfig()
		c.IDColumn = "123_invalid"
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must start with a letter or underscore")
	})

	t.Run("underscore prefix allowed", func(t *testing.T) {
		c := validConfig()
		c.IDColumn = "_id"
		assert.NoError(t, c.Validate())
	})
}

func TestValidate_PoolSizeBoundaries(t *testing.T) {
	c := validConfig()
	c.PoolSize = 1
	assert.NoError(t, c.Validate())

	c.PoolSize = 10000
	assert.NoError(t, c.Validate())

	c.PoolSize = 10001
	assert.Error(t, c.Validate())
}

func TestNormalized_ZeroCacheSizePromotedToOne(t *testing.T) {
	c := validConfig()
	c.LRUCacheSize = 0

	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.Normalized().LRUCacheSize)
}

func TestValidate_PasswordMayBeEmpty(t *testing.T) {
	c := validConfig()
	c.DatabasePassword = ""
	assert.NoError(t, c.Validate())
}

func TestDSN_EscapesSpecialCharacters(t *testing.T) {
	c := validConfig()
	c.DatabaseUser = "user@domain"
	c.DatabasePassword = "p@ss:w/ord%20"

	dsn := c.DSN()

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "user@domain", u.User.Username())
	pass, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "p@ss:w/ord%20", pass)
	assert.Equal(t, fmt.Sprintf("%s:%d", c.DatabaseHost, c.DatabasePort), u.Host)
	assert.Equal(t, "/"+c.DatabaseName, u.Path)
}
