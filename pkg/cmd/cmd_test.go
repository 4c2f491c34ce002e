package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommand struct {
	name string
	runs int
	err  error
}

func (f *fakeCommand) Name() string        { return f.name }
func (f *fakeCommand) Description() string { return "fake" }
func (f *fakeCommand) Run(ctx context.Context, inv *Invocation) error {
	f.runs++
	return f.err
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCommand{name: "beta"})
	r.Register(&fakeCommand{name: "alpha"})

	require.NotNil(t, r.Get("alpha"))
	assert.Nil(t, r.Get("missing"))

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name())
	assert.Equal(t, "beta", all[1].Name())
}

func TestMiddlewareOrderAndRoot(t *testing.T) {
	inner := &fakeCommand{name: "x"}
	var order []string

	tag := func(label string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, label)
				return c.Run(ctx, inv)
			})
		}
	}

	wrapped := Apply(inner, tag("first"), tag("second"))
	require.NoError(t, wrapped.Run(context.Background(), &Invocation{}))

	// last applied runs outermost
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, 1, inner.runs)
	assert.Same(t, Command(inner), Root(wrapped))
	assert.Equal(t, "x", wrapped.Name())
}

func TestWrapPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	inner := &fakeCommand{name: "x", err: boom}
	wrapped := Wrap(inner, func(ctx context.Context, inv *Invocation) error {
		return inner.Run(ctx, inv)
	})
	assert.ErrorIs(t, wrapped.Run(context.Background(), &Invocation{}), boom)
}
