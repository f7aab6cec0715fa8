// Package alerts polls regulator and news feeds for scam warnings. Phone
// numbers named in official warnings are registered as official sources.
package alerts

import (
	"fmt"
	"net/url"
	"strings"
)

// Source is one configured feed.
type Source struct {
	Name     string
	URL      string
	Official bool
}

// ParseSource reads a feed entry of the form "[official:]name=url" or a bare
// URL, in which case the host is used as the name.
func ParseSource(entry string) (Source, error) {
	s := strings.TrimSpace(entry)
	var src Source
	if rest, ok := strings.CutPrefix(s, "official:"); ok {
		src.Official = true
		s = rest
	}
	if name, link, ok := strings.Cut(s, "="); ok && !strings.Contains(name, "://") {
		src.Name = strings.TrimSpace(name)
		s = strings.TrimSpace(link)
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Source{}, fmt.Errorf("alerts: invalid feed url %q", s)
	}
	src.URL = u.String()
	if src.Name == "" {
		src.Name = u.Hostname()
	}
	return src, nil
}

// ParseSources parses every entry, stopping at the first bad one.
func ParseSources(entries []string) ([]Source, error) {
	out := make([]Source, 0, len(entries))
	for _, e := range entries {
		src, err := ParseSource(e)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}
