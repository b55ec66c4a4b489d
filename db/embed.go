// Package db provides embedded database schema and seed files.
package db

import _ "embed"

// Schema contains the DDL statements for the basket and catalog tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog is the default catalog loaded by seed-db.
//
//go:embed seed/catalog.json
var Catalog []byte
