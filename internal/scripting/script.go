package scripting

import (
	"fmt"
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/events"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Script is an entity whose behaviour is a Lua definition table:
//
//	return {
//	  name = "logic_board",
//	  tags = {"logic_board"},
//	  handlers = { score = function(self, ev) ... end },
//	  on_add = function(self) end,
//	  on_tick = function(self, dt) end,   -- dt in seconds
//	  on_pause = ..., on_unpause = ..., on_destroy = ...,
//	}
//
// Each hook receives self, a table holding a persistent "state" table and
// the entity API (dispatch, wait, tags, sounds, logging). A Lua error in a
// handler, hook or wait callback fails the entity; an error in on_add
// fails its insertion.
type Script struct {
	ecs.Entity

	engine *Engine
	name   string
	def    *lua.LTable
	self   *lua.LTable

	ctx ecs.Context
	log *zap.Logger
}

func newScript(e *Engine, name string, def *lua.LTable) *Script {
	if n := lStr(def, "name"); n != "" {
		name = n
	}
	s := &Script{engine: e, name: name, def: def, log: e.log}
	s.self = s.newSelf()
	return s
}

func (s *Script) Name() string { return s.name }

func (s *Script) Tags() []string {
	t, ok := s.def.RawGetString("tags").(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	for i := 1; i <= t.Len(); i++ {
		out = append(out, lua.LVAsString(t.RawGetInt(i)))
	}
	return out
}

func (s *Script) Handlers() event.Table {
	t, ok := s.def.RawGetString("handlers").(*lua.LTable)
	if !ok {
		return nil
	}
	out := make(event.Table)
	t.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		fn, isFn := v.(*lua.LFunction)
		if !ok || !isFn {
			return
		}
		out[string(name)] = func(ev event.Event) {
			s.invoke("handler "+string(name), fn, s.self, s.engine.eventTable(ev))
		}
	})
	return out
}

func (s *Script) OnAdd(ctx ecs.Context) error {
	s.ctx = ctx
	s.log = ctx.Log().Named("script").With(zap.String("script", s.name))
	if fn := s.hook("on_add"); fn != nil {
		if err := s.engine.call(fn, s.self); err != nil {
			return fmt.Errorf("script %s on_add: %w", s.name, err)
		}
	}
	return nil
}

func (s *Script) OnTick(dt time.Duration) {
	if fn := s.hook("on_tick"); fn != nil {
		s.invoke("on_tick", fn, s.self, lua.LNumber(dt.Seconds()))
	}
}

func (s *Script) OnPause() {
	if fn := s.hook("on_pause"); fn != nil {
		s.invoke("on_pause", fn, s.self)
	}
}

func (s *Script) OnUnpause() {
	if fn := s.hook("on_unpause"); fn != nil {
		s.invoke("on_unpause", fn, s.self)
	}
}

func (s *Script) OnDestroy() {
	if fn := s.hook("on_destroy"); fn != nil {
		if err := s.engine.call(fn, s.self); err != nil {
			s.log.Warn("lua on_destroy error", zap.Error(err))
		}
	}
}

// State returns a Go copy of self.state.
func (s *Script) State() map[string]any {
	m, _ := fromLua(s.self.RawGetString("state")).(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func (s *Script) hook(name string) *lua.LFunction {
	fn, _ := s.def.RawGetString(name).(*lua.LFunction)
	return fn
}

func (s *Script) invoke(what string, fn lua.LValue, args ...lua.LValue) {
	if !s.Alive() {
		return
	}
	if err := s.engine.call(fn, args...); err != nil {
		s.Fail(fmt.Errorf("script %s %s: %w", s.name, what, err))
	}
}

// newSelf builds the table handed to every hook as its first argument.
func (s *Script) newSelf() *lua.LTable {
	L := s.engine.vm
	self := L.NewTable()
	self.RawSetString("name", lua.LString(s.name))
	self.RawSetString("state", L.NewTable())

	methods := map[string]lua.LGFunction{
		"dispatch": func(L *lua.LState) int {
			s.Dispatch(events.Decode(L.CheckString(2), fields(L.OptTable(3, nil))))
			return 0
		},
		"dispatch_after": func(L *lua.LState) int {
			d := seconds(L.CheckNumber(2))
			ev := events.Decode(L.CheckString(3), fields(L.OptTable(4, nil)))
			if s.ctx != nil {
				s.ctx.DispatchAfter(d, ev)
			}
			return 0
		},
		"play_sound": func(L *lua.LState) int {
			s.Dispatch(events.PlaySound{
				Sound: L.CheckString(2),
				Gain:  float64(L.OptNumber(3, 1)),
				Pan:   float64(L.OptNumber(4, 0)),
				Speed: float64(L.OptNumber(5, 1)),
			})
			return 0
		},
		"wait": func(L *lua.LState) int {
			d := seconds(L.CheckNumber(2))
			fn := L.CheckFunction(3)
			s.Wait(d, func() { s.invoke("wait", fn) })
			return 0
		},
		"clear_timers": func(L *lua.LState) int {
			s.ClearTimers()
			return 0
		},
		"add_tag": func(L *lua.LState) int {
			s.AddTag(L.CheckString(2))
			return 0
		},
		"remove_tag": func(L *lua.LState) int {
			s.RemoveTag(L.CheckString(2))
			return 0
		},
		"has_tag": func(L *lua.LState) int {
			L.Push(lua.LBool(s.HasTag(L.CheckString(2))))
			return 1
		},
		"count_tagged": func(L *lua.LState) int {
			n := 0
			if s.ctx != nil {
				n = len(s.ctx.Tree().GetTagged(L.CheckString(2)))
			}
			L.Push(lua.LNumber(n))
			return 1
		},
		"destroy_tagged": func(L *lua.LState) int {
			tag := L.CheckString(2)
			n := 0
			if s.ctx != nil {
				for _, node := range s.ctx.Tree().GetTagged(tag) {
					node.Base().Destroy()
					n++
				}
			}
			L.Push(lua.LNumber(n))
			return 1
		},
		"destroy": func(L *lua.LState) int {
			s.Destroy()
			return 0
		},
		"elapsed": func(L *lua.LState) int {
			var t time.Duration
			if s.ctx != nil {
				t = s.ctx.Elapsed()
			}
			L.Push(lua.LNumber(t.Seconds()))
			return 1
		},
		"paused": func(L *lua.LState) int {
			L.Push(lua.LBool(s.ctx != nil && s.ctx.Paused()))
			return 1
		},
		"log": func(L *lua.LState) int {
			msg := L.CheckString(2)
			var zf []zap.Field
			for k, v := range fields(L.OptTable(3, nil)) {
				zf = append(zf, zap.Any(k, v))
			}
			s.log.Info(msg, zf...)
			return 0
		},
	}
	for name, fn := range methods {
		self.RawSetString(name, L.NewFunction(fn))
	}
	return self
}

func fields(t *lua.LTable) map[string]any {
	if t == nil {
		return nil
	}
	m, _ := fromLua(t).(map[string]any)
	return m
}

func seconds(n lua.LNumber) time.Duration {
	return time.Duration(float64(n) * float64(time.Second))
}
