// Package storage turns question image filenames into URLs on the object
// store that hosts the bank's media.
package storage

import (
	"net/url"
	"regexp"
	"strings"
)

type ImageKey struct {
	Exam          string
	Standard      string
	Subject       string
	ChapterFolder string
	Filename      string
}

type Resolver interface {
	ImageURL(key ImageKey) string
}

// PathResolver lays images out as <base>/<exam>/<standard>/<subject>/<chapter>/<file>.
type PathResolver struct {
	BaseURL string
}

func NewPathResolver(baseURL string) *PathResolver {
	return &PathResolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (r *PathResolver) ImageURL(key ImageKey) string {
	if key.Filename == "" {
		return ""
	}
	// Absolute URLs in the bank are passed through.
	if u, err := url.Parse(key.Filename); err == nil && u.Scheme != "" && u.Host != "" {
		return key.Filename
	}

	segments := make([]string, 0, 6)
	if r.BaseURL != "" {
		segments = append(segments, r.BaseURL)
	}
	for _, s := range []string{key.Exam, key.Standard, key.Subject, key.ChapterFolder, key.Filename} {
		if s = strings.Trim(s, "/ "); s != "" {
			segments = append(segments, url.PathEscape(s))
		}
	}
	return strings.Join(segments, "/")
}

var folderUnsafeRe = regexp.MustCompile(`[^\p{L}\p{N}_.\-]+`)

// ChapterFolder maps a chapter label to the folder name used for its media.
func ChapterFolder(chapter string) string {
	folder := folderUnsafeRe.ReplaceAllString(strings.TrimSpace(chapter), "_")
	return strings.Trim(folder, "_")
}
