package services

import "testing"

func TestValidMediaHost(t *testing.T) {
	for _, host := range MediaHosts {
		if !ValidMediaHost(host) {
			t.Errorf("ValidMediaHost(%q) = false", host)
		}
	}
	for _, host := range []string{"", "cdn", "NAWDIST", "nawdist.animemusicquiz.com"} {
		if ValidMediaHost(host) {
			t.Errorf("ValidMediaHost(%q) = true", host)
		}
	}
}

func TestNewMediaResolverFallback(t *testing.T) {
	if got := NewMediaResolver("eudist").Host(); got != "eudist" {
		t.Errorf("host = %s, want eudist", got)
	}
	if got := NewMediaResolver("bogus").Host(); got != "nawdist" {
		t.Errorf("host = %s, want nawdist fallback", got)
	}
	if got := NewMediaResolver("").Host(); got != "nawdist" {
		t.Errorf("host = %s, want nawdist fallback", got)
	}
}

func TestMediaResolverBuild(t *testing.T) {
	resolver := NewMediaResolver("eudist")

	tc := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", ""},
		{"bare filename", "OP1.webm", "https://eudist.animemusicquiz.com/OP1.webm"},
		{"leading slash stripped", "/OP1.webm", "https://eudist.animemusicquiz.com/OP1.webm"},
		{"filename escaped", "song name.mp3", "https://eudist.animemusicquiz.com/song%20name.mp3"},
		{"traversal rejected", "../etc/passwd", ""},
		{"nested traversal rejected", "a/../../b.webm", ""},
		{"mirror host rewritten", "https://nawdist.animemusicquiz.com/OP1.webm", "https://eudist.animemusicquiz.com/OP1.webm"},
		{"rewrite keeps path", "https://naedist.animemusicquiz.com/files/OP1.webm", "https://eudist.animemusicquiz.com/files/OP1.webm"},
		{"scheme case-insensitive", "HTTPS://nawdist.animemusicquiz.com/OP1.webm", "https://eudist.animemusicquiz.com/OP1.webm"},
		{"foreign domain untouched", "https://example.com/OP1.webm", "https://example.com/OP1.webm"},
		{"apex domain untouched", "https://animemusicquiz.com/OP1.webm", "https://animemusicquiz.com/OP1.webm"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Build(tt.value); got != tt.want {
				t.Errorf("Build(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
