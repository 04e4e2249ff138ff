package sitemap

import (
	"encoding/xml"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
)

// namespaceOrder is the order xmlns:* attributes are written on <urlset>
var namespaceOrder = []struct {
	prefix string
	url    string
}{
	{"news", NewsNamespace},
	{"xhtml", XHTMLNamespace},
	{"image", ImageNamespace},
	{"video", VideoNamespace},
}

// imageFields maps configured image keys to image:* elements, in schema order
var imageFields = []struct {
	element string
	keys    []string
}{
	{"image:loc", []string{"url", "loc"}},
	{"image:caption", []string{"caption"}},
	{"image:geo_location", []string{"geoLocation", "geo_location"}},
	{"image:title", []string{"title"}},
	{"image:license", []string{"license"}},
}

// extraNodes renders one pass-through field. used collects the extension
// prefixes the field needs declared.
func extraNodes(name string, v models.Value, used map[string]bool) []XMLNode {
	switch name {
	case models.FieldLinks:
		used["xhtml"] = true
		nodes := make([]XMLNode, 0, len(v.Items()))
		for _, item := range v.Items() {
			lang := item.GetString("lang")
			if lang == "" {
				lang = item.GetString("hreflang")
			}
			nodes = append(nodes, XMLNode{
				XMLName: xml.Name{Local: "xhtml:link"},
				Attrs: []xml.Attr{
					{Name: xml.Name{Local: "rel"}, Value: "alternate"},
					{Name: xml.Name{Local: "hreflang"}, Value: lang},
					{Name: xml.Name{Local: "href"}, Value: item.GetString("url")},
				},
			})
		}
		return nodes

	case models.FieldImages:
		used["image"] = true
		nodes := make([]XMLNode, 0, len(v.Items()))
		for _, item := range v.Items() {
			nodes = append(nodes, imageNode(item))
		}
		return nodes

	case models.FieldVideo, models.FieldNews:
		used[name] = true
		nodes := make([]XMLNode, 0, len(v.Items()))
		for _, item := range v.Items() {
			nodes = append(nodes, XMLNode{
				XMLName: xml.Name{Local: name + ":" + name},
				Nodes:   childNodes(item, name+":"),
			})
		}
		return nodes
	}
	return valueNodes(name, v, "")
}

func imageNode(item models.Value) XMLNode {
	node := XMLNode{XMLName: xml.Name{Local: "image:image"}}
	if item.Kind == models.ScalarValue {
		node.Nodes = []XMLNode{{XMLName: xml.Name{Local: "image:loc"}, Value: item.Scalar}}
		return node
	}
	for _, f := range imageFields {
		for _, key := range f.keys {
			if val := item.GetString(key); val != "" {
				node.Nodes = append(node.Nodes, XMLNode{XMLName: xml.Name{Local: f.element}, Value: val})
				break
			}
		}
	}
	return node
}

// valueNodes renders v as elements named prefix+name: a list repeats the
// element, a mapping nests its fields in order.
func valueNodes(name string, v models.Value, prefix string) []XMLNode {
	switch v.Kind {
	case models.ListValue:
		var nodes []XMLNode
		for _, item := range v.List {
			nodes = append(nodes, valueNodes(name, item, prefix)...)
		}
		return nodes
	case models.MapValue:
		return []XMLNode{{XMLName: xml.Name{Local: prefix + name}, Nodes: childNodes(v, prefix)}}
	}
	return []XMLNode{{XMLName: xml.Name{Local: prefix + name}, Value: v.Scalar}}
}

func childNodes(v models.Value, prefix string) []XMLNode {
	var nodes []XMLNode
	for _, f := range v.Fields {
		nodes = append(nodes, valueNodes(f.Name, f.Value, prefix)...)
	}
	return nodes
}

// namespaceAttrs returns the xmlns:* declarations for the used prefixes
func namespaceAttrs(used map[string]bool) []xml.Attr {
	var attrs []xml.Attr
	for _, ns := range namespaceOrder {
		if used[ns.prefix] {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + ns.prefix}, Value: ns.url})
		}
	}
	return attrs
}
