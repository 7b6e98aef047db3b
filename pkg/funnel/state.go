package funnel

import (
	"regexp"
	"strings"

	"ai-salesbot-be/pkg/store"
)

// Trigger sentences the assistant is instructed to reproduce verbatim when
// a stage is complete. The transition function matches them as literal
// substrings of the generated reply.
const (
	TriggerInsurance   = "Now, let's make sure your new phone is protected."
	TriggerAccessories = "Great! Next, let's find some accessories for your new phone."
	TriggerWatch       = "Perfect! Finally, let me show you a smartwatch to complete your setup."
	TriggerFinal       = "Thank you for shopping with Vodafone today!"
)

// Stage tags form a closed enumeration the assistant emits alongside the
// trigger sentence, decoupling control flow from exact phrasing.
const (
	TagInsurance   = "<<STAGE:INSURANCE>>"
	TagAccessories = "<<STAGE:ACCESSORIES>>"
	TagWatch       = "<<STAGE:WATCH>>"
	TagFinal       = "<<STAGE:FINAL>>"
)

type transition struct {
	tag     string
	trigger string
	next    store.FunnelState
}

// transitions is the fixed per-state table. States with no entry (FINAL)
// are absorbing.
var transitions = map[store.FunnelState]transition{
	store.StateInitial:           {tag: TagInsurance, trigger: TriggerInsurance, next: store.StateInsuranceUpsell},
	store.StateInsuranceUpsell:   {tag: TagAccessories, trigger: TriggerAccessories, next: store.StateAccessoriesUpsell},
	store.StateAccessoriesUpsell: {tag: TagWatch, trigger: TriggerWatch, next: store.StateWatchUpsell},
	store.StateWatchUpsell:       {tag: TagFinal, trigger: TriggerFinal, next: store.StateFinal},
}

// Next decides the following funnel state from the assistant's reply text.
// It is a pure function: the stage tag is checked first, then the literal
// trigger sentence; no match leaves the state unchanged.
func Next(current store.FunnelState, reply string) store.FunnelState {
	t, ok := transitions[current]
	if !ok {
		return current
	}
	if strings.Contains(reply, t.tag) || strings.Contains(reply, t.trigger) {
		return t.next
	}
	return current
}

var tagPattern = regexp.MustCompile(`\s*<<STAGE:[A-Z]+>>`)

// StripTags removes stage tags from a reply so they never reach the
// customer or the conversation log.
func StripTags(reply string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(reply, ""))
}
