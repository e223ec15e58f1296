package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jsonregistry/internal/config"
)

func testCfg() config.Configuration {
	return config.Configuration{
		TableName:   "json_objects",
		IDColumn:    "id",
		JSONBColumn: "json_object",
	}
}

func TestBuildSingleUpsertSQL(t *testing.T) {
	got := buildSingleUpsertSQL(testCfg())
	want := "INSERT INTO json_objects (json_object) VALUES ($1::jsonb) " +
		"ON CONFLICT (json_object) DO UPDATE SET json_object = EXCLUDED.json_object " +
		"RETURNING id"
	assert.Equal(t, want, got)
}

func TestBuildBatchUpsertSQL(t *testing.T) {
	got := buildBatchUpsertSQL(testCfg(), 3)
	want := "INSERT INTO json_objects (json_object) VALUES " +
		"($1::jsonb),($2::jsonb),($3::jsonb) " +
		"ON CONFLICT (json_object) DO UPDATE SET json_object = EXCLUDED.json_object " +
		"RETURNING id, json_object"
	assert.Equal(t, want, got)
}

func TestBuildBatchUpsertSQL_SingleValue(t *testing.T) {
	got := buildBatchUpsertSQL(testCfg(), 1)
	assert.Contains(t, got, "VALUES ($1::jsonb) ")
}
