package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// questCondition checks the player's progress in a named quest against a
// stage specification:
//
//	"3"   — at or past stage 3
//	"=3"  — exactly stage 3
//	"2-4" — between stages 2 and 4 inclusive
func questCondition() Condition {
	return Condition{
		Name: "quest",
		Args: ArgSpec{Min: 2, Max: 2},
		Check: func(ctx *Context, args []string) (bool, error) {
			if ctx.Host == nil || ctx.Host.Quests == nil {
				return false, fmt.Errorf("no quest service")
			}
			stage := ctx.Host.Quests.Stage(ctx.Character, args[0])
			return matchStageSpec(stage, args[1])
		},
	}
}

// matchStageSpec evaluates a stage spec against the current stage.
func matchStageSpec(stage int, spec string) (bool, error) {
	switch {
	case strings.HasPrefix(spec, "="):
		want, err := strconv.Atoi(spec[1:])
		if err != nil {
			return false, fmt.Errorf("bad stage spec %q: %w", spec, err)
		}
		return stage == want, nil
	case strings.Contains(spec, "-"):
		parts := strings.SplitN(spec, "-", 2)
		lo, err := strconv.Atoi(parts[0])
		if err != nil {
			return false, fmt.Errorf("bad stage spec %q: %w", spec, err)
		}
		hi, err := strconv.Atoi(parts[1])
		if err != nil {
			return false, fmt.Errorf("bad stage spec %q: %w", spec, err)
		}
		return stage >= lo && stage <= hi, nil
	default:
		want, err := strconv.Atoi(spec)
		if err != nil {
			return false, fmt.Errorf("bad stage spec %q: %w", spec, err)
		}
		return stage >= want, nil
	}
}

// questDoneCondition checks that the quest was completed at least once.
func questDoneCondition() Condition {
	return Condition{
		Name: "questdone",
		Args: ArgSpec{Min: 1, Max: 1},
		Check: func(ctx *Context, args []string) (bool, error) {
			if ctx.Host == nil || ctx.Host.Quests == nil {
				return false, fmt.Errorf("no quest service")
			}
			return ctx.Host.Quests.Completed(ctx.Character, args[0]), nil
		},
	}
}

// questEffect starts a quest at the given stage, or advances it. Quest
// progress is monotonic: a stage at or below the current one is an error
// and the stored stage is left unchanged.
func questEffect() Effect {
	return Effect{
		Name: "quest",
		Args: ArgSpec{Min: 2, Max: 2},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Quests == nil {
				return fmt.Errorf("no quest service")
			}
			stage, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad stage %q: %w", args[1], err)
			}
			current := ctx.Host.Quests.Stage(ctx.Character, args[0])
			if stage <= current {
				return fmt.Errorf("quest %q cannot move from stage %d back to %d", args[0], current, stage)
			}
			return ctx.Host.Quests.SetStage(ctx.Character, args[0], stage)
		},
	}
}
