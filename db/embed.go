// Package db embeds the catalog database schema.
package db

import _ "embed"

// Schema holds the idempotent DDL for the products and product_quantities
// tables.
//
//go:embed migrations/001_schema.sql
var Schema string
