package linkparse

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Link
	}{
		{
			name: "watch video",
			raw:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: Link{Kind: KindVideo, VideoID: "dQw4w9WgXcQ"},
		},
		{
			name: "watch with list and seed video",
			raw:  "https://music.youtube.com/watch?v=abc12345678&list=PLxyz",
			want: Link{Kind: KindPlaylist, VideoID: "abc12345678", ListID: "PLxyz", IsMusic: true},
		},
		{
			name: "watch list only",
			raw:  "https://www.youtube.com/watch?list=PLonly",
			want: Link{Kind: KindPlaylist, ListID: "PLonly"},
		},
		{
			name: "short link",
			raw:  "https://youtu.be/dQw4w9WgXcQ",
			want: Link{Kind: KindVideo, VideoID: "dQw4w9WgXcQ"},
		},
		{
			name: "short link with tracking query",
			raw:  "https://youtu.be/dQw4w9WgXcQ?si=share",
			want: Link{Kind: KindVideo, VideoID: "dQw4w9WgXcQ"},
		},
		{
			name: "playlist page",
			raw:  "https://music.youtube.com/playlist?list=PLaaa",
			want: Link{Kind: KindPlaylist, ListID: "PLaaa", IsMusic: true},
		},
		{
			name: "browse VL playlist",
			raw:  "https://music.youtube.com/browse/VLabc123",
			want: Link{Kind: KindPlaylist, ListID: "abc123", BrowseID: "VLabc123", IsMusic: true},
		},
		{
			name: "browse album",
			raw:  "https://music.youtube.com/browse/MPREb_f00",
			want: Link{Kind: KindAlbum, ListID: "MPREb_f00", BrowseID: "MPREb_f00", IsMusic: true},
		},
		{
			name: "browse other",
			raw:  "https://music.youtube.com/browse/UCsomething",
			want: Link{Kind: KindUnknown, BrowseID: "UCsomething", IsMusic: true},
		},
		{
			name: "podcast episode id",
			raw:  "https://music.youtube.com/podcast/abc12345678",
			want: Link{Kind: KindVideo, VideoID: "abc12345678", IsMusic: true},
		},
		{
			name: "podcast show id",
			raw:  "https://music.youtube.com/podcast/PLshowid",
			want: Link{Kind: KindPlaylist, ListID: "PLshowid", BrowseID: "PLshowid", IsMusic: true},
		},
		{
			name: "channel without video",
			raw:  "https://www.youtube.com/channel/UCchan",
			want: Link{Kind: KindUnknown},
		},
		{
			name: "channel with pinned video",
			raw:  "https://www.youtube.com/channel/UCchan?v=abc12345678",
			want: Link{Kind: KindVideo, VideoID: "abc12345678"},
		},
		{
			name: "schemeless music host",
			raw:  "music.youtube.com/watch?v=abc12345678",
			want: Link{Kind: KindVideo, VideoID: "abc12345678", IsMusic: true},
		},
		{
			name: "schemeless short link",
			raw:  "youtu.be/dQw4w9WgXcQ",
			want: Link{Kind: KindVideo, VideoID: "dQw4w9WgXcQ"},
		},
		{
			name: "bare query fallback",
			raw:  "https://music.youtube.com/library?list=PLlib",
			want: Link{Kind: KindPlaylist, ListID: "PLlib", IsMusic: true},
		},
		{
			name: "empty input",
			raw:  "",
			want: Link{Kind: KindUnknown},
		},
		{
			name: "not a url",
			raw:  "hello world",
			want: Link{Kind: KindUnknown},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.raw)
			tc.want.Raw = tc.raw
			if got != tc.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}
