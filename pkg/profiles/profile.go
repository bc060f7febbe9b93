package profiles

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	v "github.com/wikiforge/wikiparse/pkg/validator"
	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"go.yaml.in/yaml/v4"
)

// ErrProfileNotFound is returned by Get for unknown profile names.
var ErrProfileNotFound = errors.New("profile not found")

// Profile describes the extension tags of one wiki installation.
type Profile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Extends     string   `yaml:"extends,omitempty"`
	Mode        string   `yaml:"mode,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	VoidTags    []string `yaml:"void_tags,omitempty"`
}

func (p Profile) Validate() error {
	tagName := func(tag, desc string) error {
		return v.Satisfies(tag, wikitext.ValidTagName, desc, "a tag name")
	}
	var modeErr error
	if p.Mode != "" {
		_, modeErr = wikitext.ParseMode(p.Mode)
	}
	return v.All(
		v.NotEmpty(p.Name, "name"),
		v.Map(p.Tags, tagName, "tags"),
		v.NoDuplicatesFold(p.Tags, "tags"),
		v.Map(p.VoidTags, tagName, "void_tags"),
		v.NoDuplicatesFold(p.VoidTags, "void_tags"),
		modeErr,
	)
}

// Options returns parser options for the profile, with extra tags appended.
func (p Profile) Options(extra ...string) (wikitext.Options, error) {
	opts := wikitext.Options{
		Tags:     union(p.Tags, extra),
		VoidTags: p.VoidTags,
	}
	if p.Mode != "" {
		mode, err := wikitext.ParseMode(p.Mode)
		if err != nil {
			return opts, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		opts.Mode = mode
	}
	return opts, nil
}

// Decode reads one profile document, rejecting unknown fields.
func Decode(r io.Reader) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decoding profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %q: %w", p.Name, err)
	}
	return p, nil
}

//go:embed *.yaml
var Files embed.FS

var (
	builtin = map[string]Profile{}

	mu         sync.RWMutex
	profileDir string
)

// SetProfileDir makes profiles in dir take precedence over the built-in
// ones. An empty dir restores the built-in set.
func SetProfileDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	profileDir = dir
}

func currentDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return profileDir
}

// Get returns the named profile with its extends chain resolved: tags are
// unioned, and mode and void tags come from the nearest profile setting them.
func Get(name string) (Profile, error) {
	return resolve(name, nil)
}

func resolve(name string, seen []string) (Profile, error) {
	if slices.Contains(seen, name) {
		return Profile{}, fmt.Errorf("profile %q: extends cycle through %s", name, strings.Join(seen, " -> "))
	}
	p, err := lookup(name)
	if err != nil {
		return Profile{}, err
	}
	if p.Extends == "" {
		return p, nil
	}
	parent, err := resolve(p.Extends, append(seen, name))
	if err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}
	merged := parent
	merged.Name = p.Name
	merged.Description = p.Description
	merged.Extends = ""
	merged.Tags = union(parent.Tags, p.Tags)
	if p.VoidTags != nil {
		merged.VoidTags = p.VoidTags
	}
	if p.Mode != "" {
		merged.Mode = p.Mode
	}
	return merged, nil
}

func lookup(name string) (Profile, error) {
	if dir := currentDir(); dir != "" {
		content, err := os.ReadFile(filepath.Join(dir, name+".yaml"))
		switch {
		case err == nil:
			p, err := Decode(bytes.NewReader(content))
			if err != nil {
				return Profile{}, fmt.Errorf("loading profile %q from %s: %w", name, dir, err)
			}
			slog.Debug("using profile override", "name", name, "dir", dir)
			return p, nil
		case !errors.Is(err, fs.ErrNotExist):
			return Profile{}, fmt.Errorf("reading profile %q: %w", name, err)
		}
	}
	if p, ok := builtin[name]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
}

// Names lists the built-in profiles and those in the profile directory.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	if dir := currentDir(); dir != "" {
		matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
		if err != nil {
			slog.Warn("listing profile directory", "dir", dir, "error", err)
		}
		for _, m := range matches {
			names = append(names, strings.TrimSuffix(filepath.Base(m), ".yaml"))
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// union appends the names in extra missing from base, compared
// case-insensitively.
func union(base, extra []string) []string {
	out := slices.Clone(base)
	for _, name := range extra {
		if !slices.ContainsFunc(out, func(s string) bool { return strings.EqualFold(s, name) }) {
			out = append(out, name)
		}
	}
	return out
}

func init() {
	entries, err := Files.ReadDir(".")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		content, err := Files.ReadFile(name)
		if err != nil {
			panic(err)
		}
		p, err := Decode(bytes.NewReader(content))
		if err != nil {
			panic(fmt.Errorf("built-in profile %q: %w", name, err))
		}
		builtin[strings.TrimSuffix(name, ".yaml")] = p
	}
}
