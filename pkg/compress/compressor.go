// Package compress gzips rendered sitemap documents.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// GzipExtension is appended to a document filename for its compressed artifact
const GzipExtension = ".gz"

// Result is the outcome of compressing one document. Exactly one of Data and
// Err is set.
type Result struct {
	Filename string // Compressed artifact name, e.g. "sitemap.xml.gz"
	Data     []byte
	Err      error
}

// Compressor gzips documents at a fixed level
type Compressor struct {
	level       int
	concurrency int
	gzipFn      func(text string) ([]byte, error) // Compress unless replaced in tests
}

// New creates a Compressor. A level of 0 selects gzip.BestCompression.
func New(level int) (*Compressor, error) {
	if level == 0 {
		level = gzip.BestCompression
	}
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("%w: gzip level %d out of range [%d, %d]", utils.ErrConfigValidation, level, gzip.HuffmanOnly, gzip.BestCompression)
	}
	c := &Compressor{level: level, concurrency: runtime.GOMAXPROCS(0)}
	c.gzipFn = c.Compress
	return c, nil
}

// Compress gzips text
func (c *Compressor) Compress(text string) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrCompression, err)
	}
	if _, err := io.WriteString(zw, text); err != nil {
		zw.Close()
		return nil, fmt.Errorf("%w: %w", utils.ErrCompression, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrCompression, err)
	}
	return buf.Bytes(), nil
}

// CompressAll compresses every document concurrently. A failure affects only
// its own Result; results are indexed like docs.
func (c *Compressor) CompressAll(ctx context.Context, docs []models.Document) []Result {
	results := make([]Result, len(docs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, doc := range docs {
		results[i].Filename = doc.Filename + GzipExtension
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("%w: panic compressing '%s': %v", utils.ErrCompression, doc.Filename, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				results[i].Err = fmt.Errorf("%w: '%s': %w", utils.ErrCompression, doc.Filename, err)
				return nil
			}
			data, err := c.gzipFn(doc.XML)
			if err != nil {
				results[i].Err = fmt.Errorf("'%s': %w", doc.Filename, err)
				return nil
			}
			results[i].Data = data
			return nil
		})
	}
	_ = g.Wait() // Errors are per result
	return results
}

// Decompress reverses Compress
func Decompress(data []byte) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrCompression, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrCompression, err)
	}
	return string(out), nil
}
