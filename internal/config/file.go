package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// tomlFile is the on-disk shape of a Configuration, read with
// BurntSushi/toml: a private struct mirroring the file layout, decoded
// with toml.Decode, then translated into the package's public type.
type tomlFile struct {
	Database struct {
		Name     string `toml:"name"`
		Host     string `toml:"host"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		Port     int    `toml:"port"`
	} `toml:"database"`

	Pool struct {
		Size int `toml:"size"`
	} `toml:"pool"`

	Cache struct {
		LRUSize int `toml:"lru_size"`
	} `toml:"cache"`

	Table struct {
		Name        string `toml:"name"`
		IDColumn    string `toml:"id_column"`
		JSONBColumn string `toml:"jsonb_column"`
	} `toml:"table"`

	StatementTimeoutSeconds int `toml:"statement_timeout_seconds"`
}

// LoadFile reads a Configuration from a TOML file on disk. The returned
// Configuration has not yet been validated or normalized; callers still
// call Validate and Normalized themselves, exactly as if the struct had
// been built programmatically.
func LoadFile(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("config: read file %q: %w", path, err)
	}

	var f tomlFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return Configuration{}, fmt.Errorf("config: parse file %q: %w", path, err)
	}

	return Configuration{
		DatabaseName:     f.Database.Name,
		DatabaseHost:     f.Database.Host,
		DatabaseUser:     f.Database.User,
		DatabasePassword: f.Database.Password,
		DatabasePort:     f.Database.Port,
		PoolSize:         f.Pool.Size,
		LRUCacheSize:     f.Cache.LRUSize,
		TableName:        f.Table.Name,
		IDColumn:         f.Table.IDColumn,
		JSONBColumn:      f.Table.JSONBColumn,
		StatementTimeout: time.Duration(f.StatementTimeoutSeconds) * time.Second,
	}, nil
}
