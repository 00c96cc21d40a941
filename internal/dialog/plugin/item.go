package plugin

import (
	"fmt"
	"strconv"
)

// moneyItem is the reserved item name routed through the currency API
// instead of object lookup or creation.
const moneyItem = "money"

// itemCondition checks that the player holds at least a quantity of an item
// matched by display name. "money" compares total currency value instead.
func itemCondition() Condition {
	return Condition{
		Name: "item",
		Args: ArgSpec{Min: 1, Max: 2},
		Check: func(ctx *Context, args []string) (bool, error) {
			if ctx.Host == nil || ctx.Host.Inventory == nil {
				return false, fmt.Errorf("no inventory service")
			}
			count := 1
			if len(args) == 2 {
				var err error
				count, err = strconv.Atoi(args[1])
				if err != nil {
					return false, fmt.Errorf("bad quantity %q: %w", args[1], err)
				}
			}
			if args[0] == moneyItem {
				return ctx.Host.Inventory.TotalMoney(ctx.Character) >= count, nil
			}
			return ctx.Host.Inventory.CountItem(ctx.Character, args[0]) >= count, nil
		},
	}
}

// archInInventoryCondition checks for an item of a given archetype,
// regardless of its display name.
func archInInventoryCondition() Condition {
	return Condition{
		Name: "archininventory",
		Args: ArgSpec{Min: 1, Max: 1},
		Check: func(ctx *Context, args []string) (bool, error) {
			if ctx.Host == nil || ctx.Host.Inventory == nil {
				return false, fmt.Errorf("no inventory service")
			}
			return ctx.Host.Inventory.HasArchetype(ctx.Character, args[0]), nil
		},
	}
}

// giveItemEffect hands the player an item from the speaker's stock.
// "money" credits currency instead.
func giveItemEffect() Effect {
	return Effect{
		Name: "giveitem",
		Args: ArgSpec{Min: 1, Max: 2},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Inventory == nil {
				return fmt.Errorf("no inventory service")
			}
			qty := 1
			if len(args) == 2 {
				var err error
				qty, err = strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("bad quantity %q: %w", args[1], err)
				}
			}
			if args[0] == moneyItem {
				return ctx.Host.Inventory.GiveMoney(ctx.Character, qty)
			}
			return ctx.Host.Inventory.GiveItem(ctx.Speaker, ctx.Character, args[0], qty)
		},
	}
}

// giveContentsEffect hands the player everything inside a named container
// held by the speaker.
func giveContentsEffect() Effect {
	return Effect{
		Name: "givecontents",
		Args: ArgSpec{Min: 1, Max: 1},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Inventory == nil {
				return fmt.Errorf("no inventory service")
			}
			return ctx.Host.Inventory.GiveContents(ctx.Speaker, ctx.Character, args[0])
		},
	}
}

// takeItemEffect removes items from the player; quantity 0 takes every
// instance, and "money" debits currency. A rule should normally pair this
// with an "item" precondition so the take cannot fail.
func takeItemEffect() Effect {
	return Effect{
		Name: "takeitem",
		Args: ArgSpec{Min: 1, Max: 2},
		Apply: func(ctx *Context, args []string) error {
			if ctx.Host == nil || ctx.Host.Inventory == nil {
				return fmt.Errorf("no inventory service")
			}
			qty := 1
			if len(args) == 2 {
				var err error
				qty, err = strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("bad quantity %q: %w", args[1], err)
				}
			}
			if args[0] == moneyItem {
				return ctx.Host.Inventory.PayMoney(ctx.Character, qty)
			}
			return ctx.Host.Inventory.TakeItem(ctx.Character, args[0], qty)
		},
	}
}
