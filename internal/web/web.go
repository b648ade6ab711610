// Package web serves the embedded signup page.
package web

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// IndexPath is where GET / redirects.
const IndexPath = "/static/index.html"

//go:embed all:static
var staticFiles embed.FS

// Register mounts the static UI under /static and the root redirect.
func Register(r gin.IRoutes) {
	dist, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	// http.FileServer would answer /index.html with a redirect to ./,
	// so files are written out directly.
	serve := func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("filepath"), "/")
		if name == "" {
			name = "index.html"
		}
		data, err := fs.ReadFile(dist, name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
			return
		}
		c.Data(http.StatusOK, contentType(name, data), data)
	}
	r.GET("/static/*filepath", serve)
	r.HEAD("/static/*filepath", serve)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, IndexPath)
	})
}

func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
