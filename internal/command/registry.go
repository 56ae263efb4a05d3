// Package command holds the registered bot commands and dispatches inbound
// messages to the first one whose trigger matches.
package command

import (
	"context"
	"fmt"

	"github.com/lojasmm/wabot/internal/outbound"
)

const DefaultPrefix = "!"

const defaultCategory = "misc"

// Handler runs a matched command. tail is the text after the trigger.
type Handler func(ctx context.Context, s *outbound.Session, tail string) error

// Definition describes a command before its trigger is compiled.
type Definition struct {
	// Pattern is a regular expression fragment matched right after the prefix.
	Pattern     string
	Description string
	Category    string
	// Unlisted hides the command from the menu.
	Unlisted bool
	// RequiresOwner restricts the command to the configured owner numbers.
	RequiresOwner bool
}

// Command is a compiled, immutable registry entry.
type Command struct {
	Definition
	matcher Matcher
	handler Handler
}

func (c *Command) Listed() bool { return !c.Unlisted }

// Match reports whether text triggers c.
func (c *Command) Match(text string) (string, bool) {
	return c.matcher.Match(text)
}

// Builder collects commands at startup. It is not safe for concurrent use.
type Builder struct {
	prefix   string
	commands []*Command
}

// NewBuilder compiles every registered pattern against prefix.
func NewBuilder(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

func (b *Builder) Prefix() string { return b.prefix }

// Register compiles def.Pattern and appends the command. Registration order is
// match priority.
func (b *Builder) Register(def Definition, h Handler) (*Command, error) {
	m, err := Compile(b.prefix, def.Pattern)
	if err != nil {
		return nil, err
	}
	return b.RegisterMatcher(m, def, h)
}

// RegisterMatcher appends a command triggered by a custom matcher.
func (b *Builder) RegisterMatcher(m Matcher, def Definition, h Handler) (*Command, error) {
	if m == nil || h == nil {
		return nil, fmt.Errorf("command %q: matcher and handler are required", def.Pattern)
	}
	if def.Category == "" {
		def.Category = defaultCategory
	}
	cmd := &Command{Definition: def, matcher: m, handler: h}
	b.commands = append(b.commands, cmd)
	return cmd, nil
}

// Build freezes the commands registered so far.
func (b *Builder) Build() *Registry {
	cmds := make([]*Command, len(b.commands))
	copy(cmds, b.commands)
	return &Registry{prefix: b.prefix, commands: cmds}
}

// Registry is the ordered, read-only command list shared by all dispatches.
type Registry struct {
	prefix   string
	commands []*Command
}

func (r *Registry) Prefix() string { return r.prefix }

// Commands returns the commands in priority order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Match returns the first command triggered by text.
func (r *Registry) Match(text string) (*Command, string, bool) {
	for _, c := range r.commands {
		if tail, ok := c.Match(text); ok {
			return c, tail, true
		}
	}
	return nil, "", false
}

// Listed groups the menu-visible commands by category, keeping registration order.
func (r *Registry) Listed() (categories []string, byCategory map[string][]*Command) {
	byCategory = make(map[string][]*Command)
	for _, c := range r.commands {
		if !c.Listed() {
			continue
		}
		if _, seen := byCategory[c.Category]; !seen {
			categories = append(categories, c.Category)
		}
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}
	return categories, byCategory
}

type registryKey struct{}

// WithRegistry makes r available to handlers through ctx.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFrom returns the registry the running handler was dispatched from.
func RegistryFrom(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryKey{}).(*Registry)
	return r, ok
}
