package planner

import (
	"sort"

	"github.com/adwave/tv-planner/internal/models"
)

// PolicySnapshot is one request's consistent view of the rule tables.
// It is fetched fresh for every calculation so admin edits take effect
// immediately, and indexed by channel name for the calculator.
type PolicySnapshot struct {
	channels   map[string]*models.Channel
	bonuses    map[string][]models.BonusRule
	surcharges map[string][]models.SurchargeRule
}

// NewPolicySnapshot indexes the rule tables by channel name. Rules are
// ordered by ascending row ID so that first-match resolution of
// ambiguous surcharges is deterministic regardless of storage order.
func NewPolicySnapshot(channels []*models.Channel, bonuses []models.BonusRule, surcharges []models.SurchargeRule) *PolicySnapshot {
	snap := &PolicySnapshot{
		channels:   make(map[string]*models.Channel, len(channels)),
		bonuses:    make(map[string][]models.BonusRule),
		surcharges: make(map[string][]models.SurchargeRule),
	}
	for _, c := range channels {
		snap.channels[c.Name] = c
	}
	for _, b := range bonuses {
		snap.bonuses[b.ChannelName] = append(snap.bonuses[b.ChannelName], b)
	}
	for _, s := range surcharges {
		snap.surcharges[s.ChannelName] = append(snap.surcharges[s.ChannelName], s)
	}
	for name := range snap.bonuses {
		rules := snap.bonuses[name]
		sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	}
	for name := range snap.surcharges {
		rules := snap.surcharges[name]
		sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	}
	return snap
}

// Empty reports whether no channels are configured at all. This is the
// one condition the calculator treats as fatal.
func (p *PolicySnapshot) Empty() bool {
	return len(p.channels) == 0
}

// Channel returns the channel by name, or nil when not configured.
func (p *PolicySnapshot) Channel(name string) *models.Channel {
	return p.channels[name]
}

// Bonuses returns the channel's bonus rules in row-ID order.
func (p *PolicySnapshot) Bonuses(channel string) []models.BonusRule {
	return p.bonuses[channel]
}

// Surcharges returns the channel's surcharge rules in row-ID order.
func (p *PolicySnapshot) Surcharges(channel string) []models.SurchargeRule {
	return p.surcharges[channel]
}

// DuplicateSurcharges reports (channel, condition) pairs that match
// more than one surcharge row. First match still wins; the estimate
// service logs these so operators can clean up the rule table.
func (p *PolicySnapshot) DuplicateSurcharges() []models.SurchargeRule {
	var dups []models.SurchargeRule
	for _, rules := range p.surcharges {
		seen := make(map[string]bool, len(rules))
		for _, r := range rules {
			key := string(r.SurchargeType) + "|" + r.ConditionValue
			if seen[key] {
				dups = append(dups, r)
				continue
			}
			seen[key] = true
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].ID < dups[j].ID })
	return dups
}
