package sitemap

import "testing"

func TestDocumentFilename(t *testing.T) {
	tests := []struct {
		base string
		ext  string
		idx  int
		want string
	}{
		{"sitemap", "xml", 0, "sitemap.xml"},
		{"sitemap", "xml", 1, "sitemap-1.xml"},
		{"sitemap", "xml", 12, "sitemap-12.xml"},
		{"sitemap", "xml.gz", 0, "sitemap.xml.gz"},
		{"sitemap", "xml.gz", 3, "sitemap-3.xml.gz"},
		{"maps/site", "xml", 1, "maps/site-1.xml"},
	}
	for _, tt := range tests {
		if got := DocumentFilename(tt.base, tt.ext, tt.idx); got != tt.want {
			t.Errorf("DocumentFilename(%q, %q, %d) = %q, want %q", tt.base, tt.ext, tt.idx, got, tt.want)
		}
	}
}

func TestStripXMLExtension(t *testing.T) {
	tests := map[string]string{
		"sitemap":         "sitemap",
		"sitemap.xml":     "sitemap",
		"sitemap.xml.xml": "sitemap.xml",
		"sitemap.txt":     "sitemap.txt",
	}
	for in, want := range tests {
		if got := StripXMLExtension(in); got != want {
			t.Errorf("StripXMLExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIndexFilename(t *testing.T) {
	if got := IndexFilename("sitemap", "xml.gz"); got != "sitemap-index.xml.gz" {
		t.Errorf("IndexFilename() = %q", got)
	}
}
