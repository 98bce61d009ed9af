package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/hookmount/internal/hook"
	"github.com/soyeahso/hookmount/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bootScript = `
loads = (loads or 0) + 1

function greet(name, times)
  return string.rep("hi " .. name .. " ", times or 1)
end

function total(list)
  local sum = 0
  for _, n in ipairs(list) do sum = sum + n end
  return sum
end

function fail()
  error("boom")
end

function shape()
  return { kind = "post", tags = { "a", "b" } }
end
`

func testRuntime(t *testing.T) (*Runtime, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boot.lua"), []byte(bootScript), 0o600))
	rt := New(dir, logging.New(nil, "silent"))
	t.Cleanup(rt.Close)
	return rt, dir
}

func TestLoad_Idempotent(t *testing.T) {
	rt, dir := testRuntime(t)

	require.NoError(t, rt.Load("boot.lua"))
	require.NoError(t, rt.Load("boot.lua"))
	require.NoError(t, rt.Load(filepath.Join(dir, "boot.lua")))

	loads, err := rt.Call("tostring", rt.L.GetGlobal("loads"))
	require.NoError(t, err)
	assert.Equal(t, "1", loads)
	assert.Equal(t, []string{rt.Resolve("boot.lua")}, rt.Loaded())
}

func TestLoad_MissingFile(t *testing.T) {
	rt, _ := testRuntime(t)

	err := rt.Load("missing.lua")
	require.Error(t, err)
	assert.Empty(t, rt.Loaded())
}

func TestCall_ConvertsValues(t *testing.T) {
	rt, _ := testRuntime(t)
	require.NoError(t, rt.Load("boot.lua"))

	out, err := rt.Call("greet", "bob", 2)
	require.NoError(t, err)
	assert.Equal(t, "hi bob hi bob ", out)

	out, err = rt.Call("total", []any{1, 2, 3.5})
	require.NoError(t, err)
	assert.Equal(t, 6.5, out)

	out, err = rt.Call("total", []any{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	out, err = rt.Call("shape")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"kind": "post", "tags": []any{"a", "b"}}, out)
}

func TestCall_Errors(t *testing.T) {
	rt, _ := testRuntime(t)

	_, err := rt.Call("greet", "x")
	assert.ErrorContains(t, err, "not found")

	require.NoError(t, rt.Load("boot.lua"))
	_, err = rt.Call("fail")
	assert.ErrorContains(t, err, "boom")
}

func TestFunc_AsFileBackedHook(t *testing.T) {
	rt, _ := testRuntime(t)

	wrapper, err := hook.Build(hook.FileThenCall{Path: "boot.lua", Loader: rt, Fn: rt.Func("greet")})
	require.NoError(t, err)
	assert.Empty(t, rt.Loaded(), "nothing is loaded before the first call")

	out, err := wrapper("ann")
	require.NoError(t, err)
	assert.Equal(t, "hi ann ", out)

	_, err = wrapper("ann")
	require.NoError(t, err)
	assert.Len(t, rt.Loaded(), 1)
}

func TestDoStringAndClose(t *testing.T) {
	rt, _ := testRuntime(t)

	require.NoError(t, rt.DoString(`function answer() return 42 end`))
	out, err := rt.Call("answer")
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	rt.Close()
	assert.ErrorIs(t, rt.Load("boot.lua"), ErrClosed)
	_, err = rt.Call("answer")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegister_ExposesGoFunction(t *testing.T) {
	rt, _ := testRuntime(t)

	var got []any
	require.NoError(t, rt.Register("host", func(args ...any) (any, error) {
		got = args
		if len(args) > 0 && args[0] == "fail" {
			return nil, errors.New("host refused")
		}
		return []map[string]any{{"id": 1}}, nil
	}))
	require.NoError(t, rt.DoString(`
function ask()
  local rows = host("rows", 2, { "x" })
  return rows[1].id
end

function refuse()
  return host("fail")
end
`))

	out, err := rt.Call("ask")
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Equal(t, []any{"rows", 2, []any{"x"}}, got)

	_, err = rt.Call("refuse")
	assert.ErrorContains(t, err, "host refused")

	rt.Close()
	assert.ErrorIs(t, rt.Register("late", nil), ErrClosed)
}
