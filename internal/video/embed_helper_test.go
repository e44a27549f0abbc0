package video

import (
	"testing"

	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestGetEmbedInfo(t *testing.T) {
	tests := []struct {
		name     string
		link     *string
		expected EmbedInfo
	}{
		{name: "No link", link: nil, expected: EmbedInfo{Type: EmbedTypeNone}},
		{name: "Blank link", link: utils.Ptr("  "), expected: EmbedInfo{Type: EmbedTypeNone}},
		{name: "Not http", link: utils.Ptr("javascript:alert(1)"), expected: EmbedInfo{Type: EmbedTypeNone}},
		{
			name:     "YouTube watch link",
			link:     utils.Ptr("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"),
			expected: EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			name:     "YouTube short link",
			link:     utils.Ptr("https://youtu.be/dQw4w9WgXcQ?si=abc"),
			expected: EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		},
		{
			name:     "YouTube shorts",
			link:     utils.Ptr("https://youtube.com/shorts/abc123"),
			expected: EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"},
		},
		{
			name:     "Vimeo",
			link:     utils.Ptr("https://vimeo.com/76979871"),
			expected: EmbedInfo{Type: EmbedTypeVimeo, URL: "https://player.vimeo.com/video/76979871"},
		},
		{
			name:     "Video file",
			link:     utils.Ptr("https://cdn.example.com/demo.MP4"),
			expected: EmbedInfo{Type: EmbedTypeVideo, URL: "https://cdn.example.com/demo.MP4"},
		},
		{
			name:     "Anything else",
			link:     utils.Ptr("https://github.com/team/project"),
			expected: EmbedInfo{Type: EmbedTypeLink, URL: "https://github.com/team/project"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetEmbedInfo(tt.link))
		})
	}
}
