package plugin

// Token flags are the bread and butter of dialogue state: rules gate on a
// flag holding one of several values and advance the conversation by
// rewriting it. "token" reads and "settoken" writes the player-scoped
// space; the "npctoken" pair uses the speaker-scoped space, which resets
// with the NPC's map.

func tokenCondition() Condition {
	return Condition{
		Name: "token",
		Args: ArgSpec{Min: 2},
		Check: func(ctx *Context, args []string) (bool, error) {
			return matchToken(ctx.Status, args)
		},
	}
}

func npcTokenCondition() Condition {
	return Condition{
		Name: "npctoken",
		Args: ArgSpec{Min: 2},
		Check: func(ctx *Context, args []string) (bool, error) {
			return matchToken(ctx.NPCStatus, args)
		},
	}
}

// matchToken reports whether the flag named args[0] holds any of the values
// in args[1:]. A candidate value of "*" matches any stored value.
func matchToken(status Status, args []string) (bool, error) {
	current := status.Get(args[0])
	for _, want := range args[1:] {
		if want == "*" || want == current {
			return true, nil
		}
	}
	return false, nil
}

func setTokenEffect() Effect {
	return Effect{
		Name: "settoken",
		Args: ArgSpec{Min: 2, Max: 2},
		Apply: func(ctx *Context, args []string) error {
			return ctx.Status.Set(args[0], args[1])
		},
	}
}

func setNPCTokenEffect() Effect {
	return Effect{
		Name: "setnpctoken",
		Args: ArgSpec{Min: 2, Max: 2},
		Apply: func(ctx *Context, args []string) error {
			return ctx.NPCStatus.Set(args[0], args[1])
		},
	}
}
