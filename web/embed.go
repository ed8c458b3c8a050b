// Package web embeds the static browser front end.
package web

import "embed"

//go:embed all:static
var StaticFS embed.FS
