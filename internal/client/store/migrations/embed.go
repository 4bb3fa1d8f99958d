// Package migrations embeds the goose migration scripts for the local
// store. Migrations are additive only: a version bump may add collections
// or columns but never drops existing data.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
