package api

import (
	"embed"
	"io/fs"
)

//go:embed static/index.html
var apiStaticFS embed.FS

// staticFS exposes a sub-filesystem rooted at static/.
var staticFS fs.FS = func() fs.FS {
	sub, err := fs.Sub(apiStaticFS, "static")
	if err != nil {
		return apiStaticFS
	}
	return sub
}()
