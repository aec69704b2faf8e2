package policy

import (
	"context"
	"sort"

	"github.com/parleyhq/parley/internal/domain"
	"go.uber.org/zap"
)

// Inform acts about a single entity carry at most this many detail fields.
const maxInformFields = 4

// notAvailable stands in for a field the knowledge source has no value for.
const notAvailable = "not available"

// noEntity is the in-band primary-key value signalling "no entity": an empty
// lookup or an exhausted suggestion list. Anomalies surface as values the
// NLG collaborator can phrase, never as errors; the dialog always gets an
// answer.
const noEntity = "none"

// RulePolicy is a handcrafted decision policy for entity-finding dialogs:
// the user narrows an entity down with constraints, asks for details about a
// named entity, or browses alternative matches, and the policy answers with
// inform, request, or closing actions. One instance serves one session and
// owns that session's suggestion-browsing state; callers serialize turns.
type RulePolicy struct {
	ks          domain.KnowledgeSource
	logger      *zap.Logger
	primaryKey  string
	suggestions suggestions
}

var _ domain.PolicyStrategy = (*RulePolicy)(nil)

func NewRulePolicy(ks domain.KnowledgeSource, logger *zap.Logger) *RulePolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulePolicy{
		ks:         ks,
		logger:     logger,
		primaryKey: ks.PrimaryKey(),
	}
}

// Decide walks the policy through a single turn. General acts (greetings,
// farewells, unparseable input) are answered directly; everything else is
// delegated to the domain handling in nextAction. The belief state is only
// written through its System memory fields.
func (p *RulePolicy) Decide(ctx context.Context, turn int, bs *domain.BeliefState, acts []domain.UserAct) (*domain.SysAct, error) {
	types := relevantActTypes(acts)

	var act *domain.SysAct
	switch {
	case len(acts) == 0 && turn == 0:
		act = domain.NewSysAct(domain.SysActWelcome)
	case len(types) == 0 && turn > 0:
		// nothing usable came in on a non-initial turn
		act = domain.NewSysAct(domain.SysActBad)
	case types[domain.UserActBad]:
		act = domain.NewSysAct(domain.SysActBad)
	case types[domain.UserActBye]:
		act = domain.NewSysAct(domain.SysActBye)
	case types[domain.UserActThanks]:
		act = domain.NewSysAct(domain.SysActRequestMore)
	case types[domain.UserActHello]:
		// a bare greeting: ask about an open slot to move the dialog along
		act = domain.NewSysAct(domain.SysActRequest)
		if slot := openSlot(bs, p.ks); slot != "" {
			act.AddSlot(slot)
		}
	default:
		act = p.nextAction(ctx, bs)
	}

	p.logger.Debug("system action",
		zap.Int("turn", turn),
		zap.String("domain", p.ks.Name()),
		zap.Stringer("act", act),
	)
	return act, nil
}

// nextAction handles the domain-specific acts: it interprets the query
// method, runs the lookup, and shapes the result into a request for
// clarification or an offer.
func (p *RulePolicy) nextAction(ctx context.Context, bs *domain.BeliefState) *domain.SysAct {
	method := activeMethod(bs)
	constraints, dontcare := activeConstraints(bs, p.primaryKey)
	requested := requestedSlots(bs)

	switch {
	case method == domain.MethodNone:
		// the domain is not actually active
		return domain.NewSysAct(domain.SysActBad)
	case method == domain.MethodByAlternatives && len(constraints) == 0:
		// no prior search to browse alternatives of
		return domain.NewSysAct(domain.SysActBad)
	case method == domain.MethodByPrimaryKey && len(requested) == 0:
		// the user named an entity but asked nothing about it yet; echo the
		// name back without a lookup
		act := domain.NewSysAct(domain.SysActInformByName)
		name := p.entityName(bs)
		if name == "" {
			name = noEntity
		}
		act.AddValue(p.primaryKey, name)
		bs.System.LastInformedPrimKeyVal = name
		return act
	}

	results := p.query(ctx, bs, method, constraints, requested)
	act := p.classify(results, method, constraints, dontcare)

	if act.Type == domain.SysActRequest {
		if slots := act.Slots(); len(slots) > 0 {
			bs.System.LastRequestSlot = slots[0]
		}
		return act
	}

	p.fillInform(act, method, results, constraints, requested, bs)
	if act.Type == domain.SysActInformByName {
		if vals := act.Values(p.primaryKey); len(vals) > 0 {
			bs.System.LastInformedPrimKeyVal = vals[0]
		} else {
			act.AddValue(p.primaryKey, noEntity)
			bs.System.LastInformedPrimKeyVal = noEntity
		}
	}
	return act
}

// query runs the lookup matching the user's method: details about a named
// entity when querying by primary key, a constraint search otherwise. A
// failed lookup is logged and treated as an empty result set; retrying is
// the knowledge source's concern, not the policy's.
func (p *RulePolicy) query(ctx context.Context, bs *domain.BeliefState, method domain.Method, constraints map[string]string, requested []string) []domain.Record {
	if method == domain.MethodByPrimaryKey {
		if name := p.entityName(bs); name != "" {
			results, err := p.ks.FindInfoAboutEntity(ctx, name, requested)
			if err != nil {
				p.logger.Warn("entity lookup failed",
					zap.String("entity", name), zap.Error(err))
				return nil
			}
			return results
		}
	}
	results, err := p.ks.FindEntities(ctx, constraints)
	if err != nil {
		p.logger.Warn("constraint search failed", zap.Error(err))
		return nil
	}
	return results
}

// classify decides whether the turn becomes a clarifying request or an
// inform. A constraint search with several candidates asks about the slot
// that best narrows them down; everything else becomes a raw inform to be
// filled in by fillInform.
func (p *RulePolicy) classify(results []domain.Record, method domain.Method, constraints map[string]string, dontcare map[string]bool) *domain.SysAct {
	if method == domain.MethodByConstraints && len(results) > 1 {
		columns := make(map[string][]string)
		for _, rec := range results {
			for slot, val := range rec {
				if slot != p.primaryKey {
					columns[slot] = append(columns[slot], val)
				}
			}
		}
		if slot := selectNextSlot(p.ks, columns, constraints, dontcare); slot != "" {
			act := domain.NewSysAct(domain.SysActRequest)
			act.AddSlot(slot)
			return act
		}
	}
	return domain.NewSysAct(domain.SysActInformByName)
}

func (p *RulePolicy) fillInform(act *domain.SysAct, method domain.Method, results []domain.Record, constraints map[string]string, requested []string, bs *domain.BeliefState) {
	switch method {
	case domain.MethodByPrimaryKey:
		p.fillByPrimaryKey(act, results, requested, bs)
	case domain.MethodByConstraints:
		p.fillByConstraints(act, results, constraints)
	case domain.MethodByAlternatives:
		p.fillByAlternatives(act, results, constraints)
	}
}

// fillByPrimaryKey answers a request for details about a named entity from
// the first matching record, capped at the fields the user asked about.
func (p *RulePolicy) fillByPrimaryKey(act *domain.SysAct, results []domain.Record, requested []string, bs *domain.BeliefState) {
	if len(results) == 0 {
		act.AddValue(p.primaryKey, noEntity)
		return
	}
	rec := results[0]
	fields := requested
	if len(fields) > maxInformFields {
		fields = fields[:maxInformFields]
	}
	sawKey := false
	for _, slot := range fields {
		if slot == p.primaryKey {
			sawKey = true
		}
		val := rec[slot]
		if val == "" {
			val = notAvailable
		}
		act.AddValue(slot, val)
	}
	if !sawKey {
		name := rec[p.primaryKey]
		if name == "" {
			name = p.entityName(bs)
		}
		if name != "" {
			act.AddValue(p.primaryKey, name)
		}
	}
}

// fillByConstraints makes the user an offer: the first matching entity plus
// the constraints they gave, so they know the offer fits their request. The
// constraints rather than raw result fields are echoed so an impossible
// request still gets a coherent answer with an empty result set.
func (p *RulePolicy) fillByConstraints(act *domain.SysAct, results []domain.Record, constraints map[string]string) {
	if len(results) > 0 {
		p.suggestions.replace(results)
		act.AddValue(p.primaryKey, results[0][p.primaryKey])
	} else {
		act.AddValue(p.primaryKey, noEntity)
	}
	p.appendConstraints(act, constraints)
}

// fillByAlternatives scrolls one entry forward through the suggestion list,
// seeding it from the current search if a previous turn did not already
// build one. The first offer keeps the inform_by_name type so the opening
// phrasing is used; past the end of the list the primary key reads "none"
// to signal exhaustion while the cursor stays clamped on the last entry.
func (p *RulePolicy) fillByAlternatives(act *domain.SysAct, results []domain.Record, constraints map[string]string) {
	if p.suggestions.empty() && len(results) > 0 {
		p.suggestions.seed(results)
	}
	rec, first, ok := p.suggestions.advance()
	switch {
	case ok && first:
		act.Type = domain.SysActInformByName
		act.AddValue(p.primaryKey, rec[p.primaryKey])
	case ok:
		act.Type = domain.SysActInformByAlternatives
		act.AddValue(p.primaryKey, rec[p.primaryKey])
	default:
		act.Type = domain.SysActInformByAlternatives
		act.AddValue(p.primaryKey, noEntity)
	}
	p.appendConstraints(act, constraints)
}

// appendConstraints echoes the active constraints onto an offer in sorted
// slot order so output is stable across turns.
func (p *RulePolicy) appendConstraints(act *domain.SysAct, constraints map[string]string) {
	slots := make([]string, 0, len(constraints))
	for slot := range constraints {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		act.AddValue(slot, constraints[slot])
	}
}

// entityName resolves the entity currently under discussion when querying by
// primary key: the name the user gave, or failing that the entity the
// suggestion cursor points at from an earlier offer.
func (p *RulePolicy) entityName(bs *domain.BeliefState) string {
	if activeMethod(bs) != domain.MethodByPrimaryKey {
		return ""
	}
	if name := activeValue(bs.Distribution(p.primaryKey), domain.ValueNone); name != "" {
		return name
	}
	if rec, ok := p.suggestions.current(); ok {
		return rec[p.primaryKey]
	}
	return ""
}
