package main

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/index.html
var embeddedFiles embed.FS

// staticFS serves the embedded upload page.
func staticFS() http.FileSystem {
	sub, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		// The directory is compiled in; failing here is a build defect.
		panic(err)
	}
	return http.FS(sub)
}
