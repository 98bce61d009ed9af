package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DirectCallForwardsArguments(t *testing.T) {
	var got []any
	target := func(args ...any) (any, error) {
		got = args
		return "result", nil
	}

	wrapper, err := Build(DirectCall{Fn: target})
	require.NoError(t, err)

	h := NewHandler("save_post", "target", 3, wrapper)
	b := &fakeBus{}
	b.Register("save_post", h, 10, 3)

	results, err := b.fire("save_post", 1, "two", 3.0)
	require.NoError(t, err)
	assert.Equal(t, []any{1, "two", 3.0}, got)
	assert.Equal(t, []any{"result"}, results)
}

func TestBuild_PassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	wrapper, err := Build(DirectCall{Fn: func(...any) (any, error) { return nil, boom }})
	require.NoError(t, err)

	_, err = wrapper()
	assert.ErrorIs(t, err, boom)
}

func TestBuild_FileThenCallLoadsOnEveryInvocation(t *testing.T) {
	var loads []string
	loader := LoaderFunc(func(path string) error {
		loads = append(loads, path)
		return nil
	})

	calls := 0
	wrapper, err := Build(FileThenCall{
		Path:   "scripts/boot.lua",
		Loader: loader,
		Fn: func(args ...any) (any, error) {
			calls++
			return args[0], nil
		},
	})
	require.NoError(t, err)
	assert.Empty(t, loads, "building must not load")

	out, err := wrapper("a")
	require.NoError(t, err)
	assert.Equal(t, "a", out)
	_, err = wrapper("b")
	require.NoError(t, err)

	assert.Equal(t, []string{"scripts/boot.lua", "scripts/boot.lua"}, loads)
	assert.Equal(t, 2, calls)
}

func TestBuild_FileThenCallLoadErrorAborts(t *testing.T) {
	called := false
	wrapper, err := Build(FileThenCall{
		Path:   "missing.lua",
		Loader: LoaderFunc(func(string) error { return errors.New("no such file") }),
		Fn: func(...any) (any, error) {
			called = true
			return nil, nil
		},
	})
	require.NoError(t, err)

	_, err = wrapper()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.lua")
	assert.False(t, called)
}

func TestBuild_InjectedMethodCallResolvesEveryTime(t *testing.T) {
	class, err := Describe((*widget)(nil))
	require.NoError(t, err)

	var made []*widget
	injector := func(d Descriptor) (any, error) {
		assert.Equal(t, class, d)
		w := &widget{prefix: "#"}
		made = append(made, w)
		return w, nil
	}

	wrapper, err := Build(InjectedMethodCall{Class: class, Method: "Render", Injector: injector})
	require.NoError(t, err)
	assert.Empty(t, made)

	out, err := wrapper("x")
	require.NoError(t, err)
	assert.Equal(t, "#<p>x</p>", out)
	_, err = wrapper("y")
	require.NoError(t, err)

	require.Len(t, made, 2)
	assert.NotSame(t, made[0], made[1])
}

func TestBuild_InjectedMethodCallInjectorError(t *testing.T) {
	class, err := Describe((*widget)(nil))
	require.NoError(t, err)

	wrapper, err := Build(InjectedMethodCall{
		Class:    class,
		Method:   "Boot",
		Injector: func(Descriptor) (any, error) { return nil, errors.New("container down") },
	})
	require.NoError(t, err)

	_, err = wrapper()
	assert.ErrorContains(t, err, "container down")
}

func TestBuild_InjectedMethodCallWithoutInjectorUsesBoundInstance(t *testing.T) {
	w := &widget{}
	class, err := Describe(w)
	require.NoError(t, err)

	wrapper, err := Build(InjectedMethodCall{Class: class, Method: "Boot"})
	require.NoError(t, err)

	out, err := wrapper()
	require.NoError(t, err)
	assert.Equal(t, "booted", out)
	assert.Equal(t, []string{"boot"}, w.calls)
}

func TestBuild_InvalidTargets(t *testing.T) {
	bound, err := Describe(&widget{})
	require.NoError(t, err)
	unbound, err := Describe((*widget)(nil))
	require.NoError(t, err)

	tests := []struct {
		name   string
		target Target
	}{
		{"nil target", nil},
		{"nil direct", DirectCall{}},
		{"file without loader", FileThenCall{Path: "x.lua", Fn: sampleFunc}},
		{"file without path", FileThenCall{Loader: LoaderFunc(func(string) error { return nil }), Fn: sampleFunc}},
		{"nil class", InjectedMethodCall{Method: "Boot"}},
		{"empty method", InjectedMethodCall{Class: bound}},
		{"unknown method", InjectedMethodCall{Class: bound, Method: "Missing"}},
		{"unbound without injector", InjectedMethodCall{Class: unbound, Method: "Boot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Build(tt.target)
			assert.ErrorIs(t, err, ErrInvalidTarget)
			assert.Nil(t, fn)
		})
	}
}
