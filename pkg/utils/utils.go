// Package utils provides download caching for remote assets and the session
// seen-node store.
package utils

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotFound = errors.New("file not found on server")

const DefaultCacheDir = "data/cache"

type progressWriter struct {
	io.Writer
	total uint64
	last  uint64
	label string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += uint64(n)
	if pw.total-pw.last > 1024*1024 { // Log every MB
		log.Printf("%s: Downloaded %d MB", pw.label, pw.total/1024/1024)
		pw.last = pw.total
	}
	return n, err
}

// Cache stores remote files under Dir, keyed by URL and log prefix.
type Cache struct {
	Dir    string
	Client *http.Client
}

func NewCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &Cache{Dir: dir, Client: &http.Client{Timeout: 30 * time.Second}}
}

// Download fetches url into path through a temp file in the same directory.
func (c *Cache) Download(url, path string) error {
	resp, err := c.Client.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			log.Printf("Error removing temp file %s: %v", tmpName, err)
		}
	}()

	pw := &progressWriter{Writer: tmpFile, label: filepath.Base(path)}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// FileName returns the local filename used for url under logPrefix.
func FileName(url, logPrefix string) string {
	url, _, _ = strings.Cut(url, "?")
	urlParts := strings.Split(strings.TrimRight(url, "/"), "/")
	fileName := urlParts[len(urlParts)-1]

	sanitizedPrefix := strings.Trim(logPrefix, "[]")
	sanitizedPrefix = strings.ReplaceAll(sanitizedPrefix, " ", "_")
	if sanitizedPrefix != "" {
		fileName = sanitizedPrefix + "_" + fileName
	}
	return fileName
}

// Reader returns the cached copy of url, downloading it on first use.
func (c *Cache) Reader(url, logPrefix string) (io.ReadCloser, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	localPath := filepath.Join(c.Dir, FileName(url, logPrefix))

	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		log.Printf("%s Downloading %s", logPrefix, url)
		if err := c.Download(url, localPath); err != nil {
			return nil, err
		}
	} else {
		log.Printf("%s Using cached file: %s", logPrefix, localPath)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return f, nil
}

// Open resolves ref as an http(s) URL through the cache, or as a local path.
func (c *Cache) Open(ref, logPrefix string) (io.ReadCloser, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return c.Reader(ref, logPrefix)
	}
	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ref, err)
	}
	return f, nil
}
