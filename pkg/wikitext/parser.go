package wikitext

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ErrInvalidArgument is returned for unusable parser options.
var ErrInvalidArgument = errors.New("wikitext: invalid argument")

// InclusionMode selects which control-tag regions are live.
type InclusionMode int

const (
	// ModeEditing turns whole <noinclude> elements into Ignore nodes. The
	// <includeonly> tags become Ignore nodes and their content stays live.
	// When the text has an <onlyinclude> section, everything outside such
	// sections is ignored.
	ModeEditing InclusionMode = iota
	// ModeTranscluded turns whole <includeonly> elements into Ignore nodes.
	// The <noinclude> and <onlyinclude> tags become Ignore nodes and their
	// content stays live. <onlyinclude> sections are folded as in
	// ModeEditing.
	ModeTranscluded
	// ModeRaw treats control tags as ordinary extension tags.
	ModeRaw
)

var modeNames = []string{"editing", "transcluded", "raw"}

func (m InclusionMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("InclusionMode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a mode name as printed by String back to its value.
func ParseMode(s string) (InclusionMode, error) {
	i := slices.Index(modeNames, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown inclusion mode %q", ErrInvalidArgument, s)
	}
	return InclusionMode(i), nil
}

// DefaultVoidTags are tags that never take a body when no closing tag follows.
var DefaultVoidTags = []string{"br", "hr", "wbr"}

const (
	onlyIncludeOpen  = "<onlyinclude>"
	onlyIncludeClose = "</onlyinclude>"
)

var tagNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_:.-]*$`)

// ValidTagName reports whether name can be used as an extension tag name.
func ValidTagName(name string) bool { return tagNamePattern.MatchString(name) }

// Options configures a Parser.
type Options struct {
	// Tags are the extension tag names to recognize, such as "ref" or "nowiki".
	Tags []string
	// VoidTags are tags that may appear without a body. Nil selects
	// DefaultVoidTags.
	VoidTags []string
	Mode     InclusionMode
}

// Parser turns wikitext into a node tree. A Parser is immutable after
// construction and safe for concurrent use.
type Parser struct {
	mode            InclusionMode
	tagPattern      *regexp.Regexp
	closers         map[string]*regexp.Regexp
	ignoredTags     map[string]bool
	ignoredElements map[string]bool
	allowMissingEnd map[string]bool
	voidTags        map[string]bool
	foldOnlyInclude bool
}

// NewParser validates opts and compiles the tag recognizers.
func NewParser(opts Options) (*Parser, error) {
	if len(opts.Tags) == 0 {
		return nil, fmt.Errorf("%w: tag list is empty", ErrInvalidArgument)
	}
	if opts.Mode < ModeEditing || opts.Mode > ModeRaw {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, opts.Mode)
	}
	voids := opts.VoidTags
	if voids == nil {
		voids = DefaultVoidTags
	}
	p := &Parser{
		mode:            opts.Mode,
		closers:         map[string]*regexp.Regexp{},
		ignoredTags:     map[string]bool{},
		ignoredElements: map[string]bool{},
		allowMissingEnd: map[string]bool{"includeonly": true, "noinclude": true, "onlyinclude": true},
		voidTags:        map[string]bool{},
	}
	var names []string
	for _, list := range [][]string{opts.Tags, voids} {
		for _, name := range list {
			if !ValidTagName(name) {
				return nil, fmt.Errorf("%w: bad tag name %q", ErrInvalidArgument, name)
			}
			names = append(names, strings.ToLower(name))
		}
	}
	for _, name := range voids {
		p.voidTags[strings.ToLower(name)] = true
	}

	switch opts.Mode {
	case ModeEditing:
		p.ignoredTags["includeonly"] = true
		p.ignoredTags["/includeonly"] = true
		p.ignoredElements["noinclude"] = true
		p.foldOnlyInclude = true
		names = append(names, "noinclude")
	case ModeTranscluded:
		for _, t := range []string{"noinclude", "/noinclude", "onlyinclude", "/onlyinclude"} {
			p.ignoredTags[t] = true
		}
		p.ignoredElements["includeonly"] = true
		p.foldOnlyInclude = true
		names = append(names, "includeonly")
	case ModeRaw:
		names = append(names, "includeonly", "noinclude", "onlyinclude")
	}
	for t := range p.ignoredTags {
		names = append(names, t)
	}
	slices.Sort(names)
	names = slices.Compact(names)

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
		if !strings.HasPrefix(name, "/") {
			p.closers[name] = regexp.MustCompile(`(?i)</` + quoted[i] + `\s*>`)
		}
	}
	p.tagPattern = regexp.MustCompile(`^(?i:(` + strings.Join(quoted, "|") + `))(?:\s|/>|>)`)
	return p, nil
}

// Mode returns the inclusion mode the parser was built with.
func (p *Parser) Mode() InclusionMode { return p.mode }

// Parse scans text into a tree whose serialization reproduces text exactly.
func (p *Parser) Parse(text string) *NodeCollection {
	return newScanner(p, text).run()
}

// Parse is a convenience wrapper building a one-off Parser.
func Parse(text string, opts Options) (*NodeCollection, error) {
	p, err := NewParser(opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(text), nil
}
