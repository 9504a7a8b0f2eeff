package urls

import "testing"

func TestIsURLValid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "https", raw: "https://www.tiktok.com/@alice/video/111", want: true},
		{name: "http", raw: "http://example.com", want: true},
		{name: "no scheme", raw: "www.tiktok.com/@alice", want: false},
		{name: "relative path", raw: "/@alice/video/111", want: false},
		{name: "unsupported scheme", raw: "ftp://example.com/v.mp4", want: false},
		{name: "empty", raw: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsURLValid(tt.raw); got != tt.want {
				t.Errorf("IsURLValid(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	const origin = "https://www.tiktok.com"

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "relative path",
			ref:  "/@alice/video/111",
			want: "https://www.tiktok.com/@alice/video/111",
		},
		{
			name: "absolute url kept",
			ref:  "https://www.tiktok.com/@alice/video/222",
			want: "https://www.tiktok.com/@alice/video/222",
		},
		{
			name: "surrounding spaces trimmed",
			ref:  "  /@alice/video/333  ",
			want: "https://www.tiktok.com/@alice/video/333",
		},
		{
			name: "unparseable ref",
			ref:  "http://bad\x7f.example.com/",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(origin, tt.ref); got != tt.want {
				t.Errorf("Canonicalize(%q, %q) = %q, want %q", origin, tt.ref, got, tt.want)
			}
		})
	}

	if got := Canonicalize("not an origin", "/@alice/video/111"); got != "" {
		t.Errorf("expected empty result for bad origin, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "trims spaces", raw: "  https://example.com/v  ", want: "https://example.com/v"},
		{name: "already clean", raw: "https://example.com/v", want: "https://example.com/v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
