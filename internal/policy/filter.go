package policy

import "github.com/parleyhq/parley/internal/domain"

// fillerPriority orders which filler act is suppressed when it co-occurs
// with other act types. Only the first present filler is dropped per turn.
var fillerPriority = []domain.UserActType{
	domain.UserActBad,
	domain.UserActThanks,
	domain.UserActHello,
}

// relevantActTypes collects the distinct act types present this turn,
// suppressing a filler act (bad, thanks, hello) that co-occurs with anything
// else. A user saying "hello, I need a database course" is routed to domain
// handling, not the greeting branch.
func relevantActTypes(acts []domain.UserAct) map[domain.UserActType]bool {
	types := make(map[domain.UserActType]bool)
	for _, act := range acts {
		if act.Type != "" {
			types[act.Type] = true
		}
	}
	if len(types) > 1 {
		for _, filler := range fillerPriority {
			if types[filler] {
				delete(types, filler)
				break
			}
		}
	}
	return types
}
