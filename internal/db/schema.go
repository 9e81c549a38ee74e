package db

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// EnsureSchema creates schema if it does not exist. "public" and "" are no-ops.
func EnsureSchema(d *gorm.DB, schema string) error {
	if schema == "" || schema == "public" {
		return nil
	}
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(schema)).Error
}
