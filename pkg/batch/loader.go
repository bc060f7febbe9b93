package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Loader fetches documents by name.
type Loader interface {
	Load(name string) (string, error)
}

type ErrDocumentNotFound struct{ Name string }

func (e ErrDocumentNotFound) Error() string { return "document not found: " + e.Name }

type MemoryLoader map[string]string

func (m MemoryLoader) Load(name string) (string, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return "", ErrDocumentNotFound{name}
}

// Names returns the document names in sorted order.
func (m MemoryLoader) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Extensions are the file suffixes DirLoader.Names treats as wikitext.
var Extensions = []string{".wiki", ".wikitext", ".txt"}

// DirLoader loads documents from files below Root. Names are slash-separated
// paths relative to Root.
type DirLoader struct {
	Root string
}

func (d DirLoader) Load(name string) (string, error) {
	content, err := os.ReadFile(filepath.Join(d.Root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrDocumentNotFound{name}
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", name, err)
	}
	return string(content), nil
}

// Names walks Root and returns every file with one of the Extensions.
func (d DirLoader) Names() ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.Root, err)
	}
	slices.Sort(names)
	return names, nil
}
