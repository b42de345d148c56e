package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"

	"github.com/livefir/htmlminifier"
	"github.com/livefir/htmlminifier/internal/logfields"
)

// decode returns data as UTF-8 text and the encoding it was read with,
// detected from a byte order mark or a <meta charset>.
func decode(data []byte) (string, encoding.Encoding, error) {
	enc, name, _ := charset.DetermineEncoding(data, "text/html")
	if name == "utf-8" {
		return string(data), nil, nil
	}
	text, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return string(text), enc, nil
}

// encode writes text back in enc. Characters enc cannot represent become
// numeric character references.
func encode(text string, enc encoding.Encoding) ([]byte, error) {
	if enc == nil {
		return []byte(text), nil
	}
	return encoding.HTMLEscapeUnsupported(enc.NewEncoder()).Bytes([]byte(text))
}

// Processor minifies files with one set of options.
type Processor struct {
	Options *htmlminifier.Options
	// DumpTree prints the parsed tree instead of the minified document.
	DumpTree bool
	Logger   *slog.Logger
}

// Bytes minifies one document held in memory.
func (p *Processor) Bytes(data []byte) ([]byte, error) {
	text, enc, err := decode(data)
	if err != nil {
		return nil, err
	}
	var out string
	if p.DumpTree {
		out, err = htmlminifier.DumpTree(text, p.Options)
	} else {
		out, err = htmlminifier.Minify(text, p.Options)
	}
	if err != nil {
		return nil, err
	}
	if p.DumpTree {
		return []byte(out), nil
	}
	return encode(out, enc)
}

// File minifies src into dst, creating dst's directory when needed.
func (p *Processor) File(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out, err := p.Bytes(data)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return err
	}
	p.Logger.Debug("minified file",
		logfields.Path(src),
		logfields.BytesIn(len(data)),
		logfields.BytesOut(len(out)))
	return nil
}

// matchExt reports whether path ends in one of exts, given without dots.
func matchExt(path string, exts []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range exts {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Dir minifies every file under in whose extension is listed in exts into
// the same relative path under out, using up to jobs workers.
func (p *Processor) Dir(ctx context.Context, in, out string, exts []string, jobs int) error {
	var files []string
	err := filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && matchExt(path, exts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, src := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(in, src)
			if err != nil {
				return err
			}
			return p.File(src, filepath.Join(out, rel))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.Logger.Info("minified directory",
		logfields.Path(in),
		slog.Int("files", len(files)))
	return nil
}
