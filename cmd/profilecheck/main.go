package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wikiforge/wikiparse/pkg/profiles"
	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"go.yaml.in/yaml/v4"
)

func discoverProfiles(dir string) ([]string, error) {
	var files []string
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, ent := range ents {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".yaml" {
			continue
		}
		files = append(files, filepath.Join(dir, ent.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// checkProfile decodes one file and checks that its resolved form builds a
// parser. The file name must match the profile name so extends can find it.
func checkProfile(path string, stderr io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var p profiles.Profile
	if err := dec.Decode(&p); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			fmt.Fprintf(stderr, "Profile errors: %s\n", path)
			for _, e := range typeErr.Errors {
				fmt.Fprintf(stderr, "%s\n", e)
			}
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if want := strings.TrimSuffix(filepath.Base(path), ".yaml"); p.Name != want {
		return fmt.Errorf("profile name %q does not match file name %q", p.Name, want)
	}

	resolved, err := profiles.Get(p.Name)
	if err != nil {
		return err
	}
	opts, err := resolved.Options()
	if err != nil {
		return err
	}
	_, err = wikitext.NewParser(opts)
	return err
}

func appMain(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("profilecheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	profileDir := fs.String("dir", "", "Path to a directory of profile YAML files")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *profileDir == "" {
		return fmt.Errorf("dir is required")
	}

	files, err := discoverProfiles(*profileDir)
	if err != nil {
		return err
	}

	profiles.SetProfileDir(*profileDir)
	defer profiles.SetProfileDir("")

	failed := 0
	for _, file := range files {
		if err := checkProfile(file, stderr); err != nil {
			slog.Error("validation error", "file", file, "error", err)
			failed++
			continue
		}
		slog.Info("validated", "file", file)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d profiles failed validation", failed, len(files))
	}
	return nil
}

func main() {
	if err := appMain(os.Args[1:], os.Stderr); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
