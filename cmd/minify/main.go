// Command minify builds the production asset tree. With -input/-output it minifies a
// single file; with -src/-dst it minifies every template, stylesheet and script under src.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// mediaTypes maps the -type flag and file extensions onto minifier media types.
var mediaTypes = map[string]string{
	"css":  "text/css",
	"js":   "application/javascript",
	"html": "text/html",
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return m
}

func main() {
	var (
		inputFile  = flag.String("input", "", "Input file path")
		outputFile = flag.String("output", "", "Output file path")
		fileType   = flag.String("type", "", "File type (css, js, or html)")
		srcDir     = flag.String("src", "", "Source root holding templates/ and static/")
		dstDir     = flag.String("dst", "dist", "Destination root for -src")
	)
	flag.Parse()

	m := newMinifier()
	switch {
	case *srcDir != "":
		n, err := minifyTree(m, *srcDir, *dstDir)
		if err != nil {
			log.Fatalf("Failed to minify %s: %v", *srcDir, err)
		}
		fmt.Printf("Successfully minified %d files into %s\n", n, *dstDir)
	case *inputFile != "" && *outputFile != "" && *fileType != "":
		mediaType, ok := mediaTypes[strings.ToLower(*fileType)]
		if !ok {
			log.Fatalf("Unsupported file type: %s (supported: css, js, html)", *fileType)
		}
		if err := minifyFile(m, *inputFile, *outputFile, mediaType); err != nil {
			log.Fatalf("Failed to minify %s: %v", *inputFile, err)
		}
		fmt.Printf("Successfully minified %s -> %s\n", *inputFile, *outputFile)
	default:
		log.Fatal("Usage: go run ./cmd/minify -src=. -dst=dist | -input=<file> -output=<file> -type=<css|js|html>")
	}
}

// minifyTree minifies templates/ and static/ under src into dst, copying other static
// files such as audio unchanged.
func minifyTree(m *minify.M, src, dst string) (int, error) {
	count := 0
	for _, sub := range []string{"templates", "static"} {
		root := filepath.Join(src, sub)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			out := filepath.Join(dst, rel)
			mediaType, ok := mediaTypes[strings.TrimPrefix(filepath.Ext(path), ".")]
			if !ok {
				return copyFile(path, out)
			}
			count++
			return minifyFile(m, path, out, mediaType)
		})
		if err != nil {
			return count, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return count, nil
}

func minifyFile(m *minify.M, in, out, mediaType string) error {
	input, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	minified, err := m.Bytes(mediaType, input)
	if err != nil {
		return err
	}
	return writeFile(out, minified)
}

func copyFile(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return writeFile(out, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
