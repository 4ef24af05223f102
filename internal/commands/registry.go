package commands

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command
	aliases map[string]string // alias -> command name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]Command),
		aliases: make(map[string]string),
	}
}

func (r *Registry) taken(word string) bool {
	_, isName := r.byName[word]
	_, isAlias := r.aliases[word]
	return isName || isAlias
}

// Register adds c under its name and aliases. A name or alias may be used
// by one command only.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(c.Name()) {
		return fmt.Errorf("command already registered: %s", c.Name())
	}
	for _, alias := range c.Aliases() {
		if alias == c.Name() || r.taken(alias) {
			return fmt.Errorf("command alias already registered: %s", alias)
		}
	}

	r.byName[c.Name()] = c
	for _, alias := range c.Aliases() {
		r.aliases[alias] = c.Name()
	}
	return nil
}

// Find looks up a command by name, then by alias.
func (r *Registry) Find(word string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.byName[word]; ok {
		return cmd, true
	}
	name, ok := r.aliases[word]
	if !ok {
		return nil, false
	}
	return r.byName[name], true
}

// All returns the registered commands ordered by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]Command, 0, len(r.byName))
	for _, cmd := range r.byName {
		cmds = append(cmds, cmd)
	}
	slices.SortFunc(cmds, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return cmds
}

// DefaultRegistry holds the commands registered by this package's init funcs.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
