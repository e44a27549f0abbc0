// Package video turns a team's demo link into something the bracket page can embed.
package video

import (
	"net/url"
	"path"
	"strings"
)

type EmbedType int

const (
	EmbedTypeNone EmbedType = iota
	EmbedTypeYouTube
	EmbedTypeVimeo
	EmbedTypeVideo
	EmbedTypeLink
)

type EmbedInfo struct {
	Type EmbedType
	URL  string
}

var videoExtensions = []string{".mp4", ".webm", ".ogg", ".mov"}

// GetEmbedInfo picks how to show a demo link. Links that are not http(s) are
// not shown at all, anything unrecognised is shown as a plain link.
func GetEmbedInfo(link *string) EmbedInfo {
	if link == nil || strings.TrimSpace(*link) == "" {
		return EmbedInfo{Type: EmbedTypeNone}
	}

	u, err := url.Parse(strings.TrimSpace(*link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return EmbedInfo{Type: EmbedTypeNone}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := youTubeID(u); id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "vimeo.com":
		if id := path.Base(u.Path); isDigits(id) {
			return EmbedInfo{Type: EmbedTypeVimeo, URL: "https://player.vimeo.com/video/" + id}
		}
	case "player.vimeo.com":
		return EmbedInfo{Type: EmbedTypeVimeo, URL: u.String()}
	}

	ext := strings.ToLower(path.Ext(u.Path))
	for _, v := range videoExtensions {
		if ext == v {
			return EmbedInfo{Type: EmbedTypeVideo, URL: u.String()}
		}
	}

	return EmbedInfo{Type: EmbedTypeLink, URL: u.String()}
}

func youTubeID(u *url.URL) string {
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	for _, prefix := range []string{"/embed/", "/shorts/", "/live/"} {
		if id, ok := strings.CutPrefix(u.Path, prefix); ok {
			return strings.Trim(id, "/")
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
