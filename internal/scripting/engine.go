package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pinsim/pinsim/internal/core/event"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoDefinition is returned for a script chunk that does not return its
// definition table.
var ErrNoDefinition = errors.New("scripting: script must return a table")

// Engine wraps a single gopher-lua VM shared by every script entity.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// LoadAll loads every path in order. A directory contributes its .lua
// files sorted by name.
func (e *Engine) LoadAll(paths []string) ([]*Script, error) {
	var out []*Script
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			scripts, err := e.loadDir(p)
			if err != nil {
				return nil, err
			}
			out = append(out, scripts...)
			continue
		}
		s, err := e.Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (e *Engine) loadDir(dir string) ([]*Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read script dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	out := make([]*Script, 0, len(names))
	for _, name := range names {
		s, err := e.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Load compiles one script file.
func (e *Engine) Load(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := e.Compile(filepath.Base(path), string(src))
	if err != nil {
		return nil, err
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return s, nil
}

// Compile runs a script chunk and wraps the definition table it returns in
// a detached Script entity.
func (e *Engine) Compile(name, src string) (*Script, error) {
	fn, err := e.vm.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	def, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoDefinition)
	}
	return newScript(e, name, def), nil
}

// call runs fn in protected mode; Lua errors come back as Go errors.
func (e *Engine) call(fn lua.LValue, args ...lua.LValue) error {
	return e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...)
}

// eventTable converts ev to a Lua table: its fields plus "type".
func (e *Engine) eventTable(ev event.Event) *lua.LTable {
	t := e.vm.NewTable()
	if f, ok := ev.(event.Fielder); ok {
		for k, v := range f.Fields() {
			t.RawSetString(k, e.toLua(v))
		}
	}
	t.RawSetString("type", lua.LString(ev.Type()))
	return t
}

func (e *Engine) toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []string:
		t := e.vm.NewTable()
		for i, s := range x {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case map[string]any:
		t := e.vm.NewTable()
		for k, v := range x {
			t.RawSetString(k, e.toLua(v))
		}
		return t
	}
	return lua.LNil
}

// fromLua converts a Lua value to plain Go data. Tables with a sequence
// part become []any, other tables map[string]any.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LString:
		return string(x)
	case lua.LNumber:
		return float64(x)
	case lua.LBool:
		return bool(x)
	case *lua.LTable:
		if n := x.Len(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		x.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				out[string(ks)] = fromLua(v)
			}
		})
		return out
	}
	return nil
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
