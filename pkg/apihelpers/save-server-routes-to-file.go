package apihelpers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// WriteRoutesToFile dumps the registered routes of the server, sorted by
// path, into a plain text file. Used in debug mode to review the API surface.
func WriteRoutesToFile(router *gin.Engine, filename string) error {
	routes := router.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	var sb strings.Builder
	for _, route := range routes {
		fmt.Fprintf(&sb, "%s\t%s\n", route.Method, route.Path)
	}

	return os.WriteFile(filename, []byte(sb.String()), 0644)
}
