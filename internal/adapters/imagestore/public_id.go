// Package imagestore stores event images in object storage.
package imagestore

import (
	"net/url"
	"path"
	"strings"
)

// PublicIDFromURL recovers the public id of an image stored under folder from its URL:
// the last path segment with any extension stripped, prefixed by folder.
// ok is false when rawURL has no usable path segment.
//
// Keys written by Upload have no extension, so the id is the key itself. For a key
// that does carry one (events/foo.png) the id is events/foo, which names no object:
// S3 deletes of missing keys succeed, so such an image stays in the bucket.
func PublicIDFromURL(rawURL, folder string) (publicID string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") || u.Path == "" {
		return "", false
	}
	last := path.Base(u.Path)
	if last == "/" || last == "." {
		return "", false
	}
	name := strings.TrimSuffix(last, path.Ext(last))
	if name == "" {
		return "", false
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name, true
	}
	return folder + "/" + name, true
}
