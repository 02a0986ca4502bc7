package markdown

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    []string
		notWant []string
	}{
		{
			name: "heading and emphasis",
			src:  "# Hello\n\nsome *text*",
			want: []string{"<h1", "Hello</h1>", "<em>text</em>"},
		},
		{
			name:    "script is stripped",
			src:     "hi <script>alert(1)</script>",
			want:    []string{"hi"},
			notWant: []string{"<script", "alert(1)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.src)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, missing %q", tt.src, got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("Render(%q) = %q, must not contain %q", tt.src, got, nw)
				}
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	got := Excerpt("## Title\n\nFirst **bold** paragraph.", 0)
	if got != "Title First bold paragraph." {
		t.Errorf("Excerpt = %q", got)
	}

	got = Excerpt("abcdefghij", 4)
	if got != "abcd…" {
		t.Errorf("Excerpt truncated = %q, want %q", got, "abcd…")
	}
}
