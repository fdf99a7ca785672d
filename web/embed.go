// Package web embeds the chat page templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates static
var files embed.FS

// Templates returns the template tree rooted at templates/.
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic("web: templates sub filesystem: " + err.Error())
	}
	return sub
}

// StaticHandler serves static/ and is meant to be mounted under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic("web: static sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
