package pgstore

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
)

func columns(model *schema.Model) string {
	cols := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		cols[i] = pq.QuoteIdentifier(f.Name)
	}
	return strings.Join(cols, ", ")
}

func table(model *schema.Model) string {
	return pq.QuoteIdentifier(model.TableName())
}

func selectQuery(model *schema.Model, filter store.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	for _, c := range filter.Conditions {
		col := pq.QuoteIdentifier(c.Field)
		if c.Value == nil {
			where = append(where, col+" IS NULL")
			continue
		}
		args = append(args, c.Value)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	query := "SELECT " + columns(model) + " FROM " + table(model)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + pq.QuoteIdentifier(model.PrimaryKey().Name)
	return query, args
}

func getQuery(model *schema.Model, key any) (string, []any) {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		columns(model), table(model), pq.QuoteIdentifier(model.PrimaryKey().Name)), []any{key}
}

func insertQuery(model *schema.Model, rec schema.Record) (string, []any) {
	var (
		cols, params []string
		args         []any
	)
	for _, f := range model.Fields {
		if f.PrimaryKey && f.Auto && f.Type == schema.TypeInteger {
			continue
		}
		args = append(args, rec[f.Name])
		cols = append(cols, pq.QuoteIdentifier(f.Name))
		params = append(params, fmt.Sprintf("$%d", len(args)))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table(model), strings.Join(cols, ", "), strings.Join(params, ", "), columns(model)), args
}

func updateQuery(model *schema.Model, key any, rec schema.Record) (string, []any) {
	var (
		sets []string
		args []any
	)
	for _, f := range model.Fields {
		if f.PrimaryKey {
			continue
		}
		args = append(args, rec[f.Name])
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(f.Name), len(args)))
	}
	args = append(args, key)
	pk := pq.QuoteIdentifier(model.PrimaryKey().Name)
	if len(sets) == 0 {
		// Key-only model: nothing to change, but the row must exist.
		sets = append(sets, pk+" = "+pk)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		table(model), strings.Join(sets, ", "), pk, len(args), columns(model)), args
}

func deleteQuery(model *schema.Model, key any) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		table(model), pq.QuoteIdentifier(model.PrimaryKey().Name)), []any{key}
}

func columnType(f schema.Field) string {
	switch f.Type {
	case schema.TypeString:
		if f.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", f.MaxLength)
		}
		return "TEXT"
	case schema.TypeInteger:
		if f.PrimaryKey && f.Auto {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE PRECISION"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeDateTime:
		return "TIMESTAMPTZ"
	case schema.TypeUUID:
		return "UUID"
	}
	return "TEXT"
}

func createTable(model *schema.Model) string {
	defs := make([]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		def := pq.QuoteIdentifier(f.Name) + " " + columnType(f)
		switch {
		case f.PrimaryKey:
			def += " PRIMARY KEY"
		case f.Required && !f.Nullable:
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table(model), strings.Join(defs, ", "))
}
