// Package resolve turns discovered files and declared paths into sitemap
// URLs with a depth-based priority.
package resolve

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
)

// IndexName is the file name that resolves to its directory URL
const IndexName = "index.html"

const basePriority = 10

// Resolved is the result of resolving a single path
type Resolved struct {
	URL      string
	Priority float64
}

// Resolver joins paths onto a base URL and public path
type Resolver struct {
	base       string
	publicPath string
}

// New creates a Resolver. Trailing slashes on base and publicPath are ignored.
func New(base, publicPath string) *Resolver {
	return &Resolver{
		base:       strings.TrimRight(base, "/"),
		publicPath: strings.Trim(publicPath, "/"),
	}
}

// CalculatePriority computes the depth heuristic, rounded to two significant
// digits. Depth 1 is the site root. Negative results (non-index pages deeper
// than 10 levels) are clamped to 0.
func CalculatePriority(depth int, isIndex bool) float64 {
	if depth < 1 {
		depth = 1
	}
	penalty := 1.0
	if isIndex {
		penalty = 0
	}
	raw := (basePriority/float64(depth) - penalty) / 10
	p := roundSignificant(raw, 2)
	if p < 0 {
		return 0
	}
	return p
}

// roundSignificant rounds f to n significant digits
func roundSignificant(f float64, n int) float64 {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', n, 64), 64)
	if err != nil {
		return f
	}
	return rounded
}

// FromFile resolves a file found by a directory scan. Dir is relative to the
// scan root, so every directory segment adds one level of depth.
func (r *Resolver) FromFile(ref models.FileRef) Resolved {
	var parts []string
	for _, seg := range strings.Split(strings.Trim(ref.Dir, "/"), "/") {
		if seg != "" && seg != "." {
			parts = append(parts, seg)
		}
	}
	return r.resolve(parts, ref.Name, ref.Name == IndexName)
}

// FromAsset resolves a build-emitted asset name such as "about/index.html".
// The split is purely lexical on "/".
func (r *Resolver) FromAsset(name string) Resolved {
	name = strings.TrimPrefix(name, "./")
	segments := strings.Split(name, "/")
	last := segments[len(segments)-1]
	return r.resolve(segments[:len(segments)-1], last, last == IndexName)
}

// FromPath resolves a declared site path. Leading slashes do not add depth
// and a trailing slash marks a directory index. Absolute URLs are kept
// verbatim, with the priority derived from their path.
func (r *Resolver) FromPath(raw string) Resolved {
	if u, err := url.Parse(raw); err == nil && u.IsAbs() && u.Host != "" {
		parts, name := splitSitePath(u.Path)
		return Resolved{
			URL:      raw,
			Priority: CalculatePriority(len(parts)+1, name == "" || name == IndexName),
		}
	}
	parts, name := splitSitePath(raw)
	return r.resolve(parts, name, name == "" || name == IndexName)
}

// splitSitePath splits a site path into directory parts and the final name.
// Empty segments from repeated slashes are dropped.
func splitSitePath(p string) ([]string, string) {
	p = strings.TrimPrefix(p, "./")
	trailing := strings.HasSuffix(p, "/")
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && seg != "." {
			segs = append(segs, seg)
		}
	}
	if trailing || len(segs) == 0 {
		return segs, ""
	}
	return segs[:len(segs)-1], segs[len(segs)-1]
}

func (r *Resolver) resolve(parts []string, name string, isIndex bool) Resolved {
	pathArray := []string{r.base}
	if r.publicPath != "" {
		pathArray = append(pathArray, r.publicPath)
	}
	if inner := strings.Trim(strings.Join(parts, "/"), "/"); inner != "" {
		pathArray = append(pathArray, inner)
	}
	if isIndex {
		pathArray = append(pathArray, "")
	} else {
		pathArray = append(pathArray, name)
	}

	return Resolved{
		URL:      strings.Join(pathArray, "/"),
		Priority: CalculatePriority(len(parts)+1, isIndex),
	}
}
