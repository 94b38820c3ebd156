package web

import "embed"

// TemplatesFS embeds the page templates rendered by the site build.
//
//go:embed templates/*.html
var TemplatesFS embed.FS
