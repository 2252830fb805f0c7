// Package source loads the texts fed to a session: plain text files, or
// HTML articles reduced to their readable text.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// MaxBodySize caps how much of a file or response body is read.
const MaxBodySize = 10 << 20

// ErrTooLarge is returned for inputs over MaxBodySize.
var ErrTooLarge = errors.New("input exceeds size limit")

// Document is one loaded text.
type Document struct {
	Title    string
	Byline   string
	SiteName string
	Origin   string
	Text     string
}

// Load reads path. .html and .htm files go through readability.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		abs, _ := filepath.Abs(path)
		return FromHTML(bytes.NewReader(data), (&url.URL{Scheme: "file", Path: abs}).String())
	default:
		return Document{Title: filepath.Base(path), Origin: path, Text: string(data)}, nil
	}
}

// FromHTML extracts the readable article text of an HTML page. Pages
// readability finds no article in fall back to their plain body text.
func FromHTML(r io.Reader, pageURL string) (Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return Document{}, fmt.Errorf("parse url %q: %w", pageURL, err)
	}
	data, err := readLimited(r)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Origin: pageURL}
	article, err := readability.FromReader(bytes.NewReader(data), parsed)
	if err == nil {
		doc.Title = article.Title
		doc.Byline = article.Byline
		doc.SiteName = article.SiteName
		doc.Text = strings.TrimSpace(article.TextContent)
	} else {
		log.Debugf("Readability failed on %s: %v", pageURL, err)
	}
	if doc.Text == "" {
		if doc.Text, err = StripHTML(bytes.NewReader(data)); err != nil {
			return Document{}, fmt.Errorf("extract text: %w", err)
		}
	}
	log.Debugf("Extracted %q from %s: %d chars", doc.Title, pageURL, len(doc.Text))
	return doc, nil
}

// StripHTML returns the text nodes of a page outside script and style
// elements, one block per line.
func StripHTML(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(root)
	return strings.TrimSpace(buf.String()), nil
}

// Fetch downloads pageURL and extracts its article text. A nil client
// uses http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, pageURL string) (Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Document{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: status %s", pageURL, resp.Status)
	}
	if resp.ContentLength > MaxBodySize {
		return Document{}, fmt.Errorf("fetch %s: %w", pageURL, ErrTooLarge)
	}
	data, err := readLimited(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		return Document{Origin: pageURL, Text: string(data)}, nil
	}
	return FromHTML(bytes.NewReader(data), pageURL)
}

// Open picks Fetch for http(s) URLs and Load for everything else.
func Open(ctx context.Context, location string) (Document, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return Fetch(ctx, nil, location)
	}
	return Load(location)
}

// readLimited reads at most MaxBodySize bytes; one byte more is an error.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBodySize {
		return nil, ErrTooLarge
	}
	return data, nil
}
