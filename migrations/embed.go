// Package migrations embeds the SQLite schema for the learner's slot store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
