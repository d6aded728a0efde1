package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"clipquiz/internal/domain"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youtubeHosts = map[string]bool{
	"youtube.com":              true,
	"www.youtube.com":          true,
	"m.youtube.com":            true,
	"music.youtube.com":        true,
	"youtube-nocookie.com":     true,
	"www.youtube-nocookie.com": true,
}

// Source is a validated video reference.
type Source struct {
	VideoID string
	// Canonical is the watch URL handed to the downloader. It drops playlist
	// and tracking parameters.
	Canonical string
}

// ParseSource accepts the YouTube URL forms people paste (watch, shorts, live,
// embed and youtu.be links) and rejects everything else as InvalidSource.
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, domain.NewInvalidSourceError(raw, fmt.Errorf("empty url"))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Source{}, domain.NewInvalidSourceError(raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Source{}, domain.NewInvalidSourceError(raw, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case host == "youtu.be":
		id = firstSegment(u.Path)
	case youtubeHosts[host]:
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case len(segments) == 1 && segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "live" || segments[0] == "embed" || segments[0] == "v"):
			id = segments[1]
		}
	default:
		return Source{}, domain.NewInvalidSourceError(raw, fmt.Errorf("unsupported host %q", host))
	}

	if !videoIDPattern.MatchString(id) {
		return Source{}, domain.NewInvalidSourceError(raw, fmt.Errorf("no video id in url"))
	}

	return Source{
		VideoID:   id,
		Canonical: "https://www.youtube.com/watch?v=" + id,
	}, nil
}

func firstSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
