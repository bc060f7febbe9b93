package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"

	"github.com/wikiforge/wikiparse/pkg/batch"
	"github.com/wikiforge/wikiparse/pkg/profiles"
	"github.com/wikiforge/wikiparse/pkg/script"
	v "github.com/wikiforge/wikiparse/pkg/validator"
	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
	profile    string
	mode       string
	tags       []string
	workers    int
}

// settings loads the config file and applies the flags that were set.
func (o *rootOptions) settings(cmd *cobra.Command) (cliConfig, error) {
	cfg, err := loadConfig(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = o.profile
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = o.mode
	}
	if cmd.Flags().Changed("tag") {
		cfg.ExtraTags = append(cfg.ExtraTags, o.tags...)
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Workers = o.workers
	}
	return cfg, nil
}

func (o *rootOptions) parser(cmd *cobra.Command) (*wikitext.Parser, error) {
	cfg, err := o.settings(cmd)
	if err != nil {
		return nil, err
	}
	return cfg.parser()
}

// readInput reads the named file, or standard input for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(content), nil
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// writeFile replaces dst through a temporary file in the same directory.
func writeFile(dst, content string) error {
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// checkNames expands directories into the wikitext files below them.
func checkNames(args []string) ([]string, error) {
	var names []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			names = append(names, filepath.ToSlash(arg))
			continue
		}
		found, err := batch.DirLoader{Root: arg}.Names()
		if err != nil {
			return nil, err
		}
		for _, name := range found {
			names = append(names, path.Join(filepath.ToSlash(arg), name))
		}
	}
	return names, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "wikiparse",
		Short:         "Parse, inspect and rewrite MediaWiki wikitext",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigFile, "Path to wikiparse configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "Wiki profile naming the recognized extension tags")
	root.PersistentFlags().StringVar(&opts.mode, "mode", "", "Inclusion mode: editing, transcluded or raw")
	root.PersistentFlags().StringArrayVar(&opts.tags, "tag", nil, "Additional extension tag to recognize (repeatable)")

	root.AddCommand(
		newParseCmd(opts),
		newTemplatesCmd(opts),
		newTagsCmd(opts),
		newCheckCmd(opts),
		newRewriteCmd(opts),
		newProfilesCmd(opts),
	)
	return root
}

var outputFormats = []string{"text", "xml", "pretty"}

func newParseCmd(opts *rootOptions) *cobra.Command {
	var format string
	var indent bool
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a document and print its tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.MatchesAllowed(format, outputFormats, "format"); err != nil {
				return err
			}
			p, err := opts.parser(cmd)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			root := p.Parse(text)
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				fmt.Fprint(out, wikitext.Raw(root))
			case "xml":
				fmt.Fprintln(out, wikitext.XML(root, indent))
			default:
				fmt.Fprint(out, renderPretty(wikitext.Pretty(root), styled(out)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pretty", "Output format: text, xml or pretty")
	cmd.Flags().BoolVar(&indent, "indent", false, "Indent XML output")
	return cmd
}

func newTemplatesCmd(opts *rootOptions) *cobra.Command {
	var name string
	var recursive bool
	cmd := &cobra.Command{
		Use:   "templates [file|-]",
		Short: "List templates and their resolved parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.parser(cmd)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range p.Parse(text).Templates(name, recursive) {
				fmt.Fprintln(out, t.TitleValue())
				for _, param := range t.Resolved() {
					fmt.Fprintf(out, "  %s = %s\n", param.Key(), strings.TrimSpace(param.ValueText()))
				}
				if dups := t.DuplicateKeys(); len(dups) > 0 {
					slog.Warn("duplicate template parameters", "template", t.TitleValue(), "keys", dups)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Only list templates with this name")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Include templates nested in parameter values")
	return cmd
}

func newTagsCmd(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "tags [file|-]",
		Short: "List extension tags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.parser(cmd)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range p.Parse(text).Tags(name) {
				line := strings.ToLower(t.Name)
				if attrs := strings.TrimSpace(t.Attributes); attrs != "" {
					line += " [" + attrs + "]"
				}
				if t.Inner != nil {
					line += fmt.Sprintf(" %q", *t.Inner)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Only list tags with this name")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check that documents parse and serialize back unchanged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			p, err := cfg.parser()
			if err != nil {
				return err
			}
			names, err := checkNames(args)
			if err != nil {
				return err
			}
			slog.Debug("checking documents", "count", len(names), "workers", cfg.Workers, "mode", p.Mode())

			checker := batch.Checker{Parser: p, Loader: batch.DirLoader{}, Workers: cfg.Workers}
			results, err := checker.Run(cmd.Context(), names)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s := writeResults(out, results, styled(out)); s.Failed > 0 || s.LoadErrors > 0 {
				return fmt.Errorf("%d documents failed the round-trip check, %d could not be loaded", s.Failed, s.LoadErrors)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "Documents to check in parallel")
	return cmd
}

func newRewriteCmd(opts *rootOptions) *cobra.Command {
	var scriptPath string
	var write bool
	cmd := &cobra.Command{
		Use:   "rewrite --script file.star [file|-]",
		Short: "Run a Starlark script against a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && (len(args) == 0 || args[0] == "-") {
				return fmt.Errorf("--write needs a file argument")
			}
			p, err := opts.parser(cmd)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			result, err := script.Rewrite(p, scriptPath, nil, text, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !write {
				fmt.Fprint(cmd.OutOrStdout(), result)
				return nil
			}
			if result == text {
				slog.Info("document unchanged", "file", args[0])
				return nil
			}
			if err := writeFile(args[0], result); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			slog.Info("document rewritten", "file", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Starlark script to run")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the input file")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func newProfilesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List known wiki profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			profiles.SetProfileDir(cfg.ProfileDir)
			out := cmd.OutOrStdout()
			for _, name := range profiles.Names() {
				p, err := profiles.Get(name)
				if err != nil {
					slog.Warn("skipping profile", "name", name, "error", err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%d tags\t%s\n", name, p.Mode, len(p.Tags), p.Description)
			}
			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
