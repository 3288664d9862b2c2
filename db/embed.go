// Package db embeds the SQL files the storefront ships with.
package db

import _ "embed"

// Schema is the full storefront DDL: catalog, promotions, stock, and the
// sales ledger. The seeder applies it before loading fixture data.
//
//go:embed migrations/001_schema.sql
var Schema string
