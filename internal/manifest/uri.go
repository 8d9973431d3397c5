package manifest

import (
	"net/url"
	"strings"
)

const fileProtocol = "file://"

// URIToPath decodes a file:// URI into a filesystem path.
func URIToPath(uri string) (string, bool) {
	if !strings.HasPrefix(uri, fileProtocol) {
		return "", false
	}
	u, err := url.Parse(uri)
	if err != nil {
		// Fall back to stripping the scheme so slightly malformed URIs from
		// lenient clients still resolve.
		return strings.TrimPrefix(uri, fileProtocol), true
	}
	return u.Path, true
}

// PathToURI percent-encodes path into a file:// URI, leaving path separators
// intact and escaping #.
func PathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
