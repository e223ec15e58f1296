package registry

import (
	"strconv"
	"strings"

	"jsonregistry/internal/config"
)

// buildSingleUpsertSQL assembles the atomic upsert-returning-id statement
// for a single canonical value. Table and column names are interpolated
// as bare identifiers — their identifier-safety was proven by
// config.Configuration.Validate at construction — while the value itself
// is always bound as a $1 parameter, never interpolated.
func buildSingleUpsertSQL(cfg config.Configuration) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(cfg.TableName)
	b.WriteString(" (")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(") VALUES ($1::jsonb) ON CONFLICT (")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(") DO UPDATE SET ")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(" = EXCLUDED.")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(" RETURNING ")
	b.WriteString(cfg.IDColumn)
	return b.String()
}

// buildBatchUpsertSQL assembles a multi-row upsert-returning-id statement
// for n unresolved canonical values, returning (id, cval) pairs so the
// caller can join results back to input positions.
func buildBatchUpsertSQL(cfg config.Configuration, n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(cfg.TableName)
	b.WriteString(" (")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(") VALUES ")
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte(',')
		}
		b.WriteString("($")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("::jsonb)")
	}
	b.WriteString(" ON CONFLICT (")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(") DO UPDATE SET ")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(" = EXCLUDED.")
	b.WriteString(cfg.JSONBColumn)
	b.WriteString(" RETURNING ")
	b.WriteString(cfg.IDColumn)
	b.WriteString(", ")
	b.WriteString(cfg.JSONBColumn)
	return b.String()
}
