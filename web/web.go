// Package web holds the browser-facing assets compiled into the server.
package web

import _ "embed"

// FormHTML is the submission form served at the site root.
//
//go:embed form.html
var FormHTML []byte
