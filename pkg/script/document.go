package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"go.starlark.net/starlark"
)

// nodeValue holds the starlark.Value plumbing shared by the tree wrappers.
// Wrappers are mutable views of the tree and therefore unhashable.
type nodeValue struct{ typ string }

func (n nodeValue) Type() string          { return n.typ }
func (nodeValue) Freeze()                 {}
func (nodeValue) Truth() starlark.Bool    { return starlark.True }
func (n nodeValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", n.typ) }

type methods map[string]*starlark.Builtin

func (m methods) bind(name string, recv starlark.Value) starlark.Value {
	if b, ok := m[name]; ok {
		return b.BindReceiver(recv)
	}
	return nil
}

func (m methods) names(fields ...string) []string {
	out := append([]string(nil), fields...)
	for name := range m {
		out = append(out, name)
	}
	return sortedKeys(toSet(out))
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// keyArg accepts parameter keys given as strings or integers.
func keyArg(v starlark.Value) (string, error) {
	switch v := v.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return "", fmt.Errorf("parameter index %s out of range", v)
		}
		return strconv.FormatInt(i, 10), nil
	}
	return "", fmt.Errorf("parameter key must be string or int, got %s", v.Type())
}

// Document exposes a parsed page to scripts as the "doc" global.
type Document struct {
	nodeValue
	root *wikitext.NodeCollection
}

// NewDocument wraps root. Scripts edit root in place.
func NewDocument(root *wikitext.NodeCollection) *Document {
	return &Document{nodeValue: nodeValue{"document"}, root: root}
}

// Root returns the wrapped tree.
func (d *Document) Root() *wikitext.NodeCollection { return d.root }

func (d *Document) String() string { return wikitext.Raw(d.root) }

var documentMethods = methods{
	"templates": starlark.NewBuiltin("templates", documentTemplates),
	"links":     starlark.NewBuiltin("links", documentLinks),
	"headings":  starlark.NewBuiltin("headings", documentHeadings),
	"tags":      starlark.NewBuiltin("tags", documentTags),
	"text":      starlark.NewBuiltin("text", documentText),
}

func (d *Document) Attr(name string) (starlark.Value, error) {
	return documentMethods.bind(name, d), nil
}

func (d *Document) AttrNames() []string { return documentMethods.names() }

func documentTemplates(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	d := b.Receiver().(*Document)
	var name string
	var recursive bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name?", &name, "recursive?", &recursive); err != nil {
		return nil, err
	}
	var items []starlark.Value
	for _, t := range d.root.Templates(name, recursive) {
		items = append(items, newTemplate(t))
	}
	return starlark.NewList(items), nil
}

func documentLinks(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	var items []starlark.Value
	for _, l := range b.Receiver().(*Document).root.Links() {
		items = append(items, newLink(l))
	}
	return starlark.NewList(items), nil
}

func documentHeadings(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	var items []starlark.Value
	for _, h := range b.Receiver().(*Document).root.Headings() {
		items = append(items, newHeading(h))
	}
	return starlark.NewList(items), nil
}

func documentTags(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name?", &name); err != nil {
		return nil, err
	}
	var items []starlark.Value
	for _, t := range b.Receiver().(*Document).root.Tags(name) {
		items = append(items, newTag(t))
	}
	return starlark.NewList(items), nil
}

func documentText(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.String(b.Receiver().String()), nil
}

type templateValue struct {
	nodeValue
	node *wikitext.TemplateNode
}

func newTemplate(n *wikitext.TemplateNode) *templateValue {
	return &templateValue{nodeValue: nodeValue{"template"}, node: n}
}

func (t *templateValue) String() string { return wikitext.RawNode(t.node) }

var templateMethods = methods{
	"get":      starlark.NewBuiltin("get", templateGet),
	"has":      starlark.NewBuiltin("has", templateHas),
	"set":      starlark.NewBuiltin("set", templateSet),
	"remove":   starlark.NewBuiltin("remove", templateRemove),
	"rename":   starlark.NewBuiltin("rename", templateRename),
	"append":   starlark.NewBuiltin("append", templateAppend),
	"set_name": starlark.NewBuiltin("set_name", templateSetName),
}

func (t *templateValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(t.node.TitleValue()), nil
	case "title":
		return starlark.String(strings.TrimSpace(wikitext.Value(t.node.Title))), nil
	case "line_start":
		return starlark.Bool(t.node.AtLineStart), nil
	case "params":
		resolved := t.node.Resolved()
		dict := starlark.NewDict(len(resolved))
		for _, p := range resolved {
			if err := dict.SetKey(starlark.String(p.Key()), starlark.String(p.ValueText())); err != nil {
				return nil, err
			}
		}
		return dict, nil
	}
	return templateMethods.bind(name, t), nil
}

func (t *templateValue) AttrNames() []string {
	return templateMethods.names("name", "title", "line_start", "params")
}

func templateGet(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var keyVal starlark.Value
	var def starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "key", &keyVal, "default?", &def); err != nil {
		return nil, err
	}
	key, err := keyArg(keyVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	if v, ok := b.Receiver().(*templateValue).node.Get(key); ok {
		return starlark.String(v), nil
	}
	return def, nil
}

func templateHas(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var keyVal starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &keyVal); err != nil {
		return nil, err
	}
	key, err := keyArg(keyVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.Bool(b.Receiver().(*templateValue).node.Find(key) != nil), nil
}

func templateSet(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var keyVal starlark.Value
	var value string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &keyVal, &value); err != nil {
		return nil, err
	}
	key, err := keyArg(keyVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	b.Receiver().(*templateValue).node.Set(key, value)
	return starlark.None, nil
}

func templateRemove(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var keyVal starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &keyVal); err != nil {
		return nil, err
	}
	key, err := keyArg(keyVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.MakeInt(b.Receiver().(*templateValue).node.Remove(key)), nil
}

func templateRename(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fromVal starlark.Value
	var to string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &fromVal, &to); err != nil {
		return nil, err
	}
	from, err := keyArg(fromVal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.Bool(b.Receiver().(*templateValue).node.Rename(from, to)), nil
}

func templateAppend(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value); err != nil {
		return nil, err
	}
	p := b.Receiver().(*templateValue).node.AddPositional(value)
	return starlark.MakeInt(p.Index), nil
}

func templateSetName(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	b.Receiver().(*templateValue).node.SetTitle(name)
	return starlark.None, nil
}

type linkValue struct {
	nodeValue
	node *wikitext.LinkNode
}

func newLink(n *wikitext.LinkNode) *linkValue {
	return &linkValue{nodeValue: nodeValue{"link"}, node: n}
}

func (l *linkValue) String() string { return wikitext.RawNode(l.node) }

var linkMethods = methods{
	"set_target": starlark.NewBuiltin("set_target", linkSetTarget),
}

func (l *linkValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "target":
		return starlark.String(l.node.TargetValue()), nil
	case "display":
		return starlark.String(l.node.DisplayText()), nil
	}
	return linkMethods.bind(name, l), nil
}

func (l *linkValue) AttrNames() []string { return linkMethods.names("target", "display") }

func linkSetTarget(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &target); err != nil {
		return nil, err
	}
	b.Receiver().(*linkValue).node.SetTarget(target)
	return starlark.None, nil
}

type headingValue struct {
	nodeValue
	node *wikitext.HeadingNode
}

func newHeading(n *wikitext.HeadingNode) *headingValue {
	return &headingValue{nodeValue: nodeValue{"heading"}, node: n}
}

func (h *headingValue) String() string { return wikitext.RawNode(h.node) }

func (h *headingValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "level":
		return starlark.MakeInt(h.node.Level), nil
	case "index":
		return starlark.MakeInt(h.node.Index), nil
	case "title":
		return starlark.String(h.node.TitleText()), nil
	}
	return nil, nil
}

func (h *headingValue) AttrNames() []string { return []string{"index", "level", "title"} }

type tagValue struct {
	nodeValue
	node *wikitext.TagNode
}

func newTag(n *wikitext.TagNode) *tagValue {
	return &tagValue{nodeValue: nodeValue{"tag"}, node: n}
}

func (t *tagValue) String() string { return wikitext.RawNode(t.node) }

func (t *tagValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(strings.ToLower(t.node.Name)), nil
	case "attrs":
		return starlark.String(strings.TrimSpace(t.node.Attributes)), nil
	case "inner":
		if t.node.Inner == nil {
			return starlark.None, nil
		}
		return starlark.String(*t.node.Inner), nil
	}
	return nil, nil
}

func (t *tagValue) AttrNames() []string { return []string{"attrs", "inner", "name"} }

var (
	_ starlark.HasAttrs = (*Document)(nil)
	_ starlark.HasAttrs = (*templateValue)(nil)
	_ starlark.HasAttrs = (*linkValue)(nil)
	_ starlark.HasAttrs = (*headingValue)(nil)
	_ starlark.HasAttrs = (*tagValue)(nil)
)
