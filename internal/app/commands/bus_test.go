package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/commands"
)

type rename struct{ Name string }

func (rename) Key() string { return "test.rename" }

type other struct{}

func (other) Key() string { return "test.rename" }

func TestDispatchTyped(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.rename", commands.HandlerFunc[rename, string](func(_ context.Context, cmd rename) (string, error) {
		return "renamed " + cmd.Name, nil
	}))

	out, err := commands.Dispatch[rename, string](context.Background(), bus, rename{Name: "loft"})
	require.NoError(t, err)
	assert.Equal(t, "renamed loft", out)

	_, err = commands.Dispatch[rename, int](context.Background(), bus, rename{})
	assert.ErrorIs(t, err, commands.ErrResultType)

	_, err = bus.Dispatch(context.Background(), other{})
	assert.ErrorIs(t, err, commands.ErrInvalidCommand)

	_, err = commands.Dispatch[rename, string](context.Background(), nil, rename{})
	assert.ErrorIs(t, err, commands.ErrNilBus)
}

func TestRoutesAndRegistrationGuards(t *testing.T) {
	bus := commands.NewInMemoryBus()
	h := commands.HandlerFunc[rename, string](func(context.Context, rename) (string, error) { return "", nil })
	commands.RegisterHandler(bus, "test.rename", h)

	assert.Equal(t, []commands.Route{{Key: "test.rename", Command: "commands_test.rename", Result: "string"}}, bus.Routes())
	assert.Panics(t, func() { commands.RegisterHandler(bus, "test.rename", h) })
	assert.Panics(t, func() { commands.RegisterHandler(bus, "", h) })
}
