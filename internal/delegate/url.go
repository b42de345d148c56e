package delegate

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrNoSite is returned by NewRelativizer for a site without scheme or host.
var ErrNoSite = errors.New("site must be an absolute URL")

const directoryIndex = "index.html"

// Relativizer is the default URLMinifier. It rewrites URLs relative to the
// page address Site, choosing the shortest of the root-relative and
// path-relative forms. URLs on another scheme are left alone; URLs on
// another host lose only their scheme.
type Relativizer struct {
	scheme string
	host   string
	dir    string
}

// NewRelativizer parses site, the absolute URL of the page being minified.
func NewRelativizer(site string) (*Relativizer, error) {
	ref, err := splitURL(site)
	if err != nil {
		return nil, fmt.Errorf("parse site %q: %w", site, err)
	}
	if ref.scheme == "" || !ref.hasHost {
		return nil, fmt.Errorf("%w: %q", ErrNoSite, site)
	}
	p := ref.path
	if p == "" {
		p = "/"
	}
	return &Relativizer{
		scheme: ref.scheme,
		host:   strings.ToLower(ref.host),
		dir:    p[:strings.LastIndexByte(p, '/')+1],
	}, nil
}

// reference is a URL split on its raw text, so the path keeps the escaping
// the author chose.
type reference struct {
	scheme  string
	host    string
	hasHost bool
	path    string
	suffix  string // query and fragment
}

func splitURL(s string) (reference, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "%20")
	u, err := url.Parse(s)
	if err != nil {
		return reference{}, err
	}
	ref := reference{scheme: strings.ToLower(u.Scheme)}
	rest := s
	if u.Scheme != "" {
		rest = rest[len(u.Scheme)+1:]
	}
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		ref.host, ref.hasHost = rest[:end], true
		rest = rest[end:]
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		ref.path, ref.suffix = rest[:i], rest[i:]
	} else {
		ref.path = rest
	}
	return ref, nil
}

// resolve turns a relative path into an absolute, dot-free one.
func (r *Relativizer) resolve(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = r.dir + p
	}
	trailing := strings.HasSuffix(p, "/") || strings.HasSuffix(p, "/.") || strings.HasSuffix(p, "/..")
	p = path.Clean(p)
	if trailing && p != "/" {
		p += "/"
	}
	return p
}

// MinifyURL implements URLMinifier.
func (r *Relativizer) MinifyURL(u string) (string, error) {
	ref, err := splitURL(u)
	if err != nil {
		return u, err
	}
	if ref.scheme != "" && ref.scheme != r.scheme {
		return u, nil
	}
	if ref.scheme != "" && !ref.hasHost {
		// opaque URL such as mailto:x
		return u, nil
	}
	if !ref.hasHost && ref.path == "" {
		// fragment or query only
		return u, nil
	}

	p := r.resolve(ref.path)
	if ref.path == "" {
		p = "/"
	}
	if strings.HasSuffix(p, "/"+directoryIndex) {
		p = strings.TrimSuffix(p, directoryIndex)
	}

	if ref.hasHost && strings.ToLower(ref.host) != r.host {
		return "//" + ref.host + p + ref.suffix, nil
	}

	rootRelative := p + ref.suffix
	relative := r.relative(p)
	if relative == "" && ref.suffix == "" {
		relative = "./"
	}
	relative += ref.suffix
	if len(relative) < len(rootRelative) {
		return relative, nil
	}
	return rootRelative, nil
}

// relative expresses the absolute path p from the site directory.
func (r *Relativizer) relative(p string) string {
	if strings.HasPrefix(p, r.dir) {
		return p[len(r.dir):]
	}
	from := strings.Split(strings.Trim(r.dir, "/"), "/")
	to := strings.Split(strings.TrimPrefix(p, "/"), "/")
	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}
	return strings.Repeat("../", len(from)-common) + strings.Join(to[common:], "/")
}
