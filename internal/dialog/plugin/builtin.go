package plugin

import "fmt"

// Builtins returns a Registry populated with every built-in condition and
// effect plugin.
//
// Postcondition: Returns a Registry with all built-ins registered.
func Builtins() *Registry {
	r := NewRegistry()

	conditions := []Condition{
		tokenCondition(),
		npcTokenCondition(),
		itemCondition(),
		levelCondition(),
		questCondition(),
		questDoneCondition(),
		ageCondition(),
		archInInventoryCondition(),
		knowledgeKnownCondition(),
		scriptCondition(),
	}
	effects := []Effect{
		setTokenEffect(),
		setNPCTokenEffect(),
		questEffect(),
		giveItemEffect(),
		giveContentsEffect(),
		takeItemEffect(),
		giveKnowledgeEffect(),
		markTimeEffect(),
		connectionEffect(),
		animateEffect(),
		scriptEffect(),
	}

	for _, c := range conditions {
		if err := r.RegisterCondition(c); err != nil {
			panic(fmt.Sprintf("registering built-in condition: %v", err))
		}
	}
	for _, e := range effects {
		if err := r.RegisterEffect(e); err != nil {
			panic(fmt.Sprintf("registering built-in effect: %v", err))
		}
	}
	return r
}
