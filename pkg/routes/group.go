package routes

import (
	"net/http"
	"slices"

	"github.com/JaimeStill/tagline/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
type Group struct {
	Prefix   string
	Tags     []string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		walk("", nil, group, func(path string, _ []string, route Route) {
			mux.HandleFunc(route.Method+" "+path, route.Handler)
		})
	}
}

// Describe adds every documented route to spec, prefixing paths with basePath.
// Group tags are applied to operations that declare none.
func Describe(spec *openapi.Spec, basePath string, groups ...Group) error {
	var err error
	for _, group := range groups {
		walk(basePath, nil, group, func(path string, tags []string, route Route) {
			if err != nil || route.OpenAPI == nil {
				return
			}
			op := route.OpenAPI
			if len(op.Tags) == 0 {
				op.Tags = tags
			}
			err = spec.AddOperation(path, route.Method, op)
		})
	}
	return err
}

func walk(parent string, tags []string, group Group, fn func(string, []string, Route)) {
	prefix := parent + group.Prefix
	tags = append(slices.Clone(tags), group.Tags...)

	for _, route := range group.Routes {
		fn(prefix+route.Pattern, tags, route)
	}
	for _, child := range group.Children {
		walk(prefix, tags, child, fn)
	}
}
