package web

import "embed"

// FS holds the page templates and the storefront script.
//
//go:embed templates/*.html static/*
var FS embed.FS
