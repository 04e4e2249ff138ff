package sitemap

import "encoding/xml"

// --- XML Structs for Sitemap Rendering ---

// Namespace is the sitemap protocol 0.9 namespace
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Extension namespaces declared on <urlset> when a document uses them
const (
	NewsNamespace  = "http://www.google.com/schemas/sitemap-news/0.9"
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"
	ImageNamespace = "http://www.google.com/schemas/sitemap-image/1.1"
	VideoNamespace = "http://www.google.com/schemas/sitemap-video/1.1"
)

// XMLNode is a pass-through element of <url>. Its name, which may carry a
// namespace prefix such as "image:loc", comes from XMLName.
type XMLNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Value   string     `xml:",chardata"`
	Nodes   []XMLNode
}

// XMLURL represents a <url> element in a sitemap
type XMLURL struct {
	Loc        string    `xml:"loc"`
	LastMod    string    `xml:"lastmod,omitempty"`
	ChangeFreq string    `xml:"changefreq,omitempty"`
	Priority   string    `xml:"priority,omitempty"`
	Extra      []XMLNode // Element names taken from each XMLName
}

// XMLURLSet represents a <urlset> element in a sitemap
type XMLURLSet struct {
	XMLName    xml.Name   `xml:"urlset"`
	XMLNS      string     `xml:"xmlns,attr"`
	Namespaces []xml.Attr `xml:",any,attr"` // xmlns:* for extensions in use
	URLs       []XMLURL   `xml:"url"`
}

// XMLSitemap represents a <sitemap> element in a sitemap index file
type XMLSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// XMLSitemapIndex represents a <sitemapindex> element
type XMLSitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []XMLSitemap `xml:"sitemap"`
}
