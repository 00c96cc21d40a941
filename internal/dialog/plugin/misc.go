package plugin

import (
	"fmt"
	"strconv"
)

// levelCondition is true when the player's level is at least the argument.
func levelCondition() Condition {
	return Condition{
		Name: "level",
		Args: ArgSpec{Min: 1, Max: 1},
		Check: func(ctx *Context, args []string) (bool, error) {
			want, err := strconv.Atoi(args[0])
			if err != nil {
				return false, fmt.Errorf("bad level %q: %w", args[0], err)
			}
			return ctx.Character.Level() >= want, nil
		},
	}
}

// knowledgeKnownCondition is true when the player has been granted the
// knowledge code.
func knowledgeKnownCondition() Condition {
	return Condition{
		Name: "knowledgeknown",
		Args: ArgSpec{Min: 1, Max: 1},
		Check: func(ctx *Context, args []string) (bool, error) {
			if ctx.Host == nil || ctx.Host.Knowledge == nil {
				return false, fmt.Errorf("no knowledge service")
			}
			return ctx.Host.Knowledge.Known(ctx.Character, args[0]), nil
		},
	}
}

// giveKnowledgeEffect grants the player a knowledge code.
func giveKnowledgeEffect() Effect {
	return Effect{
		Name: "giveknowledge",
		Args: ArgSpec{Min: 1, Max: 1},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Knowledge == nil {
				return fmt.Errorf("no knowledge service")
			}
			return ctx.Host.Knowledge.Grant(ctx.Character, args[0])
		},
	}
}

// connectionEffect triggers a numbered map connection.
func connectionEffect() Effect {
	return Effect{
		Name: "connection",
		Args: ArgSpec{Min: 1, Max: 1},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Connections == nil {
				return fmt.Errorf("no connection service")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad connection number %q: %w", args[0], err)
			}
			return ctx.Host.Connections.Trigger(n)
		},
	}
}

// animateEffect runs a secondary scripted animation on the speaker.
func animateEffect() Effect {
	return Effect{
		Name: "animate",
		Args: ArgSpec{Min: 1, Max: 2},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Animator == nil {
				return fmt.Errorf("no animator service")
			}
			animation := ""
			if len(args) == 2 {
				animation = args[1]
			}
			return ctx.Host.Animator.Run(ctx.Speaker, args[0], animation)
		},
	}
}
