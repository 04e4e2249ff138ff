package sitemap

import (
	"strconv"
	"strings"
)

// StripXMLExtension removes a trailing ".xml" so it is not doubled
func StripXMLExtension(filename string) string {
	return strings.TrimSuffix(filename, ".xml")
}

// DocumentFilename names document idx: "sitemap.xml", "sitemap-1.xml", ...
// ext is the full extension without the leading dot, e.g. "xml" or "xml.gz".
func DocumentFilename(base, ext string, idx int) string {
	if idx == 0 {
		return base + "." + ext
	}
	return base + "-" + strconv.Itoa(idx) + "." + ext
}

// IndexFilename names the sitemap index document
func IndexFilename(base, ext string) string {
	return base + "-index." + ext
}
