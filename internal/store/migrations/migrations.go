// Package migrations embeds the chat.db schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
