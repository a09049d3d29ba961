// Package migrations embeds the database schema so tests and tooling apply
// the same DDL the deployment pipeline does.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
