package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// The script plugin pair bridges rules to Lua hooks for logic the built-in
// plugin set cannot express. The hook receives the listener's and speaker's
// names followed by any literal arguments from the rule. As a condition the
// hook's first return value is the verdict (only boolean true passes); as
// an effect the return value is ignored.

func scriptCondition() Condition {
	return Condition{
		Name: "script",
		Args: ArgSpec{Min: 1},
		Check: func(ctx *Context, args []string) (bool, error) {
			ret, err := callHook(ctx, args)
			if err != nil {
				return false, err
			}
			return ret == lua.LTrue, nil
		},
	}
}

func scriptEffect() Effect {
	return Effect{
		Name: "script",
		Args: ArgSpec{Min: 1},
		Apply: func(ctx *Context, args []string) error {
			_, err := callHook(ctx, args)
			return err
		},
	}
}

func callHook(ctx *Context, args []string) (lua.LValue, error) {
	if ctx.Scripts == nil {
		return lua.LNil, fmt.Errorf("no script manager configured")
	}
	hook := args[0]
	if !ctx.Scripts.HasHook(ctx.Location, hook) {
		return lua.LNil, fmt.Errorf("undefined script hook %q", hook)
	}
	luaArgs := make([]lua.LValue, 0, len(args)+1)
	luaArgs = append(luaArgs, lua.LString(ctx.Character.Name()), lua.LString(ctx.Speaker.Name()))
	for _, a := range args[1:] {
		luaArgs = append(luaArgs, lua.LString(a))
	}
	return ctx.Scripts.CallHook(ctx.Location, hook, luaArgs...)
}
