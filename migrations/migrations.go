// Package migrations embeds the schema so the migrate command and the
// integration tests apply exactly the same files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
