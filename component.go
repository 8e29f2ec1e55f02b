package webcmp

import (
	"context"

	"github.com/a-h/templ"
)

// Component is the UI subtree mounted for one connected instance. Render is
// called on the instance's consumer goroutine after mount and after every
// state change, and must be pure: it reads state and returns markup.
type Component interface {
	Render(ctx context.Context, s *State) templ.Component
}

// Updater is implemented by components that react to state changes, for
// example by emitting events. Update runs before the following render.
// bound is the slot that changed.
type Updater interface {
	Update(ctx context.Context, s *State, bound string)
}

// ComponentFunc adapts a render function to Component.
type ComponentFunc func(ctx context.Context, s *State) templ.Component

// Render calls f.
func (f ComponentFunc) Render(ctx context.Context, s *State) templ.Component {
	return f(ctx, s)
}

// Builder creates a fresh component for each mount.
type Builder func() Component
