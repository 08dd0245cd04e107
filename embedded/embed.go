// Package embedded provides the starter templates written by `r0 init` and the
// builtin coding agent definitions compiled into the r0 binary.
package embedded

import "embed"

// TemplatesFS holds prompt.md, backlog.md and notepad.md. prompt.md is a
// text/template rendered with the workspace folder name.
//
//go:embed templates/*.md
var TemplatesFS embed.FS

// AgentsFS holds one YAML definition per builtin agent backend.
//
//go:embed agents/*.yaml
var AgentsFS embed.FS
