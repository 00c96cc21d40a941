package scripting

import lua "github.com/yuin/gopher-lua"

// RegisterModules registers the dialog.* Lua table into L. Hooks use it to
// reach game state through the Manager's injected callbacks:
//
//	dialog.get_flag(owner, key)        -> string ("" when unset)
//	dialog.set_flag(owner, key, value)
//	dialog.count_item(owner, name)     -> number
//	dialog.say(text)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: dialog global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	mod := L.NewTable()

	L.SetField(mod, "get_flag", L.NewFunction(func(L *lua.LState) int {
		owner := L.CheckString(1)
		key := L.CheckString(2)
		if m.GetFlag == nil {
			L.Push(lua.LString(""))
			return 1
		}
		L.Push(lua.LString(m.GetFlag(owner, key)))
		return 1
	}))

	L.SetField(mod, "set_flag", L.NewFunction(func(L *lua.LState) int {
		owner := L.CheckString(1)
		key := L.CheckString(2)
		value := L.CheckString(3)
		if m.SetFlag != nil {
			m.SetFlag(owner, key, value)
		}
		return 0
	}))

	L.SetField(mod, "count_item", L.NewFunction(func(L *lua.LState) int {
		owner := L.CheckString(1)
		name := L.CheckString(2)
		if m.CountItem == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.CountItem(owner, name)))
		return 1
	}))

	L.SetField(mod, "say", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		if m.Say != nil {
			m.Say(text)
		}
		return 0
	}))

	L.SetGlobal("dialog", mod)
}
