//go:build !dev

package resources

import (
	"embed"
	"io/fs"
)

const cacheControl = "public, max-age=86400"

//go:embed static
var embedded embed.FS

func assets() fs.FS {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
