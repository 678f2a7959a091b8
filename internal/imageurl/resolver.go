// Package imageurl turns the image references the catalog API hands out
// (absolute URLs, upload paths, structured image objects) into absolute
// URLs a client can fetch.
package imageurl

import (
	"encoding/json"
	"strings"
)

// Placeholder is returned whenever a reference cannot be resolved.
const Placeholder = "/placeholder.jpg"

// DefaultAPIURL is used when no API endpoint is configured.
const DefaultAPIURL = "http://localhost:5005/api"

// sentinels are references the backend emits for "no image".
var sentinels = map[string]struct{}{
	"/uploads/categories": {},
}

// ImageRef is the structured image object returned by the catalog API.
type ImageRef struct {
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
}

type Resolver struct {
	origin string
}

// NewResolver builds a resolver whose media origin is apiURL without its /api suffix.
func NewResolver(apiURL string) *Resolver {
	return &Resolver{origin: MediaOrigin(apiURL)}
}

// MediaOrigin strips a trailing "/api" (or "/api/") from an API endpoint.
func MediaOrigin(apiURL string) string {
	if strings.TrimSpace(apiURL) == "" {
		apiURL = DefaultAPIURL
	}
	origin := strings.TrimSuffix(apiURL, "/")
	origin = strings.TrimSuffix(origin, "/api")
	return strings.TrimSuffix(origin, "/")
}

func (r *Resolver) Origin() string {
	return r.origin
}

// Resolve maps a single reference to an absolute URL or the placeholder.
func (r *Resolver) Resolve(ref any) string {
	switch v := ref.(type) {
	case nil:
		return Placeholder
	case string:
		return r.resolvePath(v)
	case *string:
		if v == nil {
			return Placeholder
		}
		return r.resolvePath(*v)
	case ImageRef:
		return r.resolveObject(v.URL, v.Path)
	case *ImageRef:
		if v == nil {
			return Placeholder
		}
		return r.resolveObject(v.URL, v.Path)
	case map[string]any:
		url, _ := v["url"].(string)
		path, _ := v["path"].(string)
		return r.resolveObject(url, path)
	case map[string]string:
		return r.resolveObject(v["url"], v["path"])
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return Placeholder
		}
		if list, ok := decoded.([]any); ok {
			return r.ResolveFirst(list, 0)
		}
		return r.Resolve(decoded)
	default:
		return Placeholder
	}
}

// ResolveFirst resolves refs[index], falling back to refs[0] when index is
// out of range or the element is empty. refs may be a bare reference, a
// slice of strings or a slice of structured objects.
func (r *Resolver) ResolveFirst(refs any, index int) string {
	var list []any
	switch v := refs.(type) {
	case nil:
		return Placeholder
	case []any:
		list = v
	case []string:
		list = make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
	case []ImageRef:
		list = make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
	case []map[string]any:
		list = make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
	case json.RawMessage:
		return r.Resolve(v)
	default:
		return r.Resolve(refs)
	}

	if len(list) == 0 {
		return Placeholder
	}

	target := list[0]
	if index > 0 && index < len(list) && !isEmptyRef(list[index]) {
		target = list[index]
	}
	return r.Resolve(target)
}

func (r *Resolver) resolveObject(url, path string) string {
	if strings.TrimSpace(url) != "" {
		return r.resolvePath(url)
	}
	return r.resolvePath(path)
}

func (r *Resolver) resolvePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return Placeholder
	}
	if strings.HasSuffix(path, ",") || strings.HasSuffix(path, "/") {
		return Placeholder
	}
	if _, ok := sentinels[path]; ok {
		return Placeholder
	}

	if isAbsolute(path) {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return r.origin + path
	}
	return r.origin + "/" + path
}

func isAbsolute(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isEmptyRef(ref any) bool {
	switch v := ref.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
