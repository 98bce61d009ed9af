package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindConstructor_NewInstancePerFiring(t *testing.T) {
	var built []*booter
	class, err := Describe((*booter)(nil), WithConstructor(func(n int) *booter {
		b := &booter{n: n}
		built = append(built, b)
		return b
	}))
	require.NoError(t, err)

	b := &fakeBus{}
	binder := NewBinder(b)
	require.NoError(t, binder.BindConstructor("boot", class, 10))

	require.Len(t, b.registered, 1)
	assert.Equal(t, 1, b.registered[0].arity)
	assert.Empty(t, built, "binding must not construct")

	_, err = b.fire("boot", 1)
	require.NoError(t, err)
	_, err = b.fire("boot", 2)
	require.NoError(t, err)

	require.Len(t, built, 2)
	assert.NotSame(t, built[0], built[1])
	assert.Equal(t, 1, built[0].n)
	assert.Equal(t, 2, built[1].n)
}

func TestBindConstructor_ConstructorError(t *testing.T) {
	class, err := Describe((*booter)(nil), WithConstructor(func() (*booter, error) {
		return nil, errors.New("no config")
	}))
	require.NoError(t, err)

	b := &fakeBus{}
	require.NoError(t, NewBinder(b).BindConstructor("boot", class, 10))

	_, err = b.fire("boot")
	assert.ErrorContains(t, err, "no config")
}

func TestBindConstructor_MissingConstructor(t *testing.T) {
	class, err := Describe((*booter)(nil))
	require.NoError(t, err)

	b := &fakeBus{}
	err = NewBinder(b).BindConstructor("boot", class, 10)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
	assert.Empty(t, b.registered)
}

func TestBindConstructor_MissingClass(t *testing.T) {
	err := NewBinder(&fakeBus{}).BindConstructor("boot", nil, 10)
	assert.ErrorIs(t, err, ErrMissingArgument)
	assert.EqualError(t, err, "hook: class name must be supplied")
}

func TestBindInit_ParameterlessInstanceThenInit(t *testing.T) {
	started = nil
	t.Cleanup(func() { started = nil })

	class, err := Describe((*starter)(nil))
	require.NoError(t, err)

	b := &fakeBus{}
	require.NoError(t, NewBinder(b).BindInit("plugins_loaded", class, 0))
	assert.Equal(t, 1, b.registered[0].arity)
	assert.Equal(t, 0, b.registered[0].priority)

	_, err = b.fire("plugins_loaded", "alpha")
	require.NoError(t, err)
	_, err = b.fire("plugins_loaded", "beta")
	require.NoError(t, err)

	require.Len(t, started, 2)
	assert.NotSame(t, started[0], started[1])
	assert.Equal(t, "alpha", started[0].name)
	assert.Equal(t, "beta", started[1].name)
}

func TestBindInit_MissingInit(t *testing.T) {
	class, err := Describe((*booter)(nil))
	require.NoError(t, err)

	err = NewBinder(&fakeBus{}).BindInit("init", class, 10)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
}

func TestConstructorTo_CallSiteForm(t *testing.T) {
	var built []int
	class, err := Describe((*booter)(nil), WithName("booter"), WithConstructor(func(n int) *booter {
		built = append(built, n)
		return &booter{n: n}
	}))
	require.NoError(t, err)

	catalog := NewCatalog()
	require.NoError(t, catalog.Add(class))

	b := &fakeBus{}
	binder := NewBinder(b, WithCatalog(catalog))

	require.NoError(t, binder.ConstructorTo("boot", "booter", "first"))
	require.NoError(t, binder.ConstructorTo("setup", class))
	require.NoError(t, binder.ConstructorTo("late", class, 0))

	require.Len(t, b.registered, 3)
	assert.Equal(t, PriorityFirst, b.registered[0].priority)
	assert.Equal(t, DefaultPriority, b.registered[1].priority)
	assert.Equal(t, 0, b.registered[2].priority)

	_, err = b.fire("boot", 7)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, built)
}

func TestConstructorTo_Errors(t *testing.T) {
	binder := NewBinder(&fakeBus{})

	assert.ErrorIs(t, binder.ConstructorTo("boot"), ErrMissingArgument)
	assert.ErrorIs(t, binder.InitTo("boot"), ErrMissingArgument)
	assert.ErrorIs(t, binder.ConstructorTo("boot", ""), ErrMissingArgument)
	assert.ErrorIs(t, binder.ConstructorTo("boot", "unknown"), ErrInvalidTarget)
	assert.ErrorIs(t, binder.ConstructorTo("boot", 42), ErrInvalidTarget)

	class, err := Describe((*starter)(nil))
	require.NoError(t, err)
	assert.ErrorIs(t, binder.InitTo("boot", class, "soon"), ErrInvalidTarget)
	assert.ErrorIs(t, binder.InitTo("boot", class, 1.5), ErrInvalidTarget)
	assert.NoError(t, binder.InitTo("boot", class, "last"))
}

func TestUnbind(t *testing.T) {
	class, err := Describe((*starter)(nil))
	require.NoError(t, err)

	b := &fakeBus{}
	binder := NewBinder(b)
	require.NoError(t, binder.BindInit("init", class, 10))

	assert.True(t, binder.Unbind("init", InitRef(class), 10))
	assert.Equal(t, 0, b.count("init"))
	assert.False(t, binder.Unbind("init", InitRef(class), 10))
}
