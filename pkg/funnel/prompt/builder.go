package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-salesbot-be/pkg/catalog"
	"ai-salesbot-be/pkg/funnel"
	"ai-salesbot-be/pkg/store"
)

// HistoryWindow bounds how many recent turns are replayed into the prompt,
// keeping prompt size independent of conversation length.
const HistoryWindow = 10

const persona = "You are TOBI, a friendly and expert conversational sales assistant for Vodafone UK.\n" +
	"Your goal is to help customers find the perfect mobile phone and complete their setup.\n\n" +
	"Key Guidelines:\n" +
	"1. Be friendly, professional, and conversational\n" +
	"2. Ask relevant questions to understand customer needs (budget, usage, brand preferences, etc.)\n" +
	"3. Provide helpful recommendations based on their requirements\n" +
	"4. Always direct customers to specific Vodafone UK product URLs when making recommendations\n" +
	"5. If you don't have current product information, acknowledge this and suggest they check the Vodafone UK website\n" +
	"6. Keep responses concise but informative\n" +
	"7. Ask one question at a time to avoid overwhelming the customer\n"

// stageInstructions tell the model the goal of the current funnel stage and
// the exact hand-off sentence and tag that close it.
var stageInstructions = map[store.FunnelState]string{
	store.StateInitial: "Current goal: understand the customer's mobile phone needs and guide them to the right handset.\n" +
		"If you recommend products, you MUST use the format: [Product Name](Product URL)\n" +
		"Once the customer has clearly chosen a handset, confirm their choice and end your reply with exactly this sentence:\n" +
		"\"" + funnel.TriggerInsurance + "\" " + funnel.TagInsurance,
	store.StateInsuranceUpsell: "Current goal: offer the customer device insurance for their new phone using the plans below.\n" +
		"Answer questions about the plans honestly. Once the customer has accepted a plan or clearly declined insurance, end your reply with exactly this sentence:\n" +
		"\"" + funnel.TriggerAccessories + "\" " + funnel.TagAccessories,
	store.StateAccessoriesUpsell: "Current goal: offer the customer accessories for their new phone from the list below.\n" +
		"Once the customer has picked accessories or clearly declined, end your reply with exactly this sentence:\n" +
		"\"" + funnel.TriggerWatch + "\" " + funnel.TagWatch,
	store.StateWatchUpsell: "Current goal: offer the customer a smartwatch from the list below.\n" +
		"Once the customer has chosen a watch or clearly declined, end your reply with exactly this sentence:\n" +
		"\"" + funnel.TriggerFinal + "\" " + funnel.TagFinal,
	store.StateFinal: "The sale is complete. Thank the customer warmly, summarise what they chose if they ask, and answer any remaining questions.\n" +
		"Do not try to sell anything further.",
}

// ContextFor serializes the reference material for a funnel stage: the
// INITIAL stage sees live search results, the upsell stages see their
// fixed reference catalogs, FINAL sees nothing.
func ContextFor(state store.FunnelState, recommendations []store.Recommendation) string {
	switch state {
	case store.StateInitial:
		if len(recommendations) == 0 {
			return "No products found matching the query."
		}
		return "Available Products:\n" + marshalContext(recommendations)
	case store.StateInsuranceUpsell:
		return "Available Insurance Plans:\n" + marshalContext(catalog.InsurancePlans())
	case store.StateAccessoriesUpsell:
		return "Available Accessories:\n" + marshalContext(catalog.Accessories())
	case store.StateWatchUpsell:
		return "Available Watches:\n" + marshalContext(catalog.Watches())
	default:
		return ""
	}
}

func marshalContext(v interface{}) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(raw)
}

// Builder composes the full instruction+context+history prompt for one
// completion call. It is a pure function of its inputs.
type Builder struct {
	state       store.FunnelState
	history     []store.Turn
	userMessage string
	context     string
	preferences store.Preferences
}

func NewBuilder(state store.FunnelState, history []store.Turn, userMessage, context string) *Builder {
	return &Builder{
		state:       state,
		history:     history,
		userMessage: userMessage,
		context:     context,
	}
}

// WithPreferences adds the customer's stated preferences; non-empty fields
// are summarized into a digest line so the model keeps them in view even
// after the turns that stated them slide out of the history window.
func (b *Builder) WithPreferences(prefs store.Preferences) *Builder {
	b.preferences = prefs
	return b
}

func (b *Builder) Build() string {
	var prompt strings.Builder

	prompt.WriteString(persona)
	prompt.WriteString("\n")

	if instructions, ok := stageInstructions[b.state]; ok {
		prompt.WriteString(instructions)
		prompt.WriteString("\n\n")
	}

	if b.context != "" {
		prompt.WriteString("Here is some context that may be relevant to the customer:\n")
		prompt.WriteString(b.context)
		prompt.WriteString("\n\n")
	}

	if digest := preferenceDigest(b.preferences); digest != "" {
		prompt.WriteString("Known customer preferences: ")
		prompt.WriteString(digest)
		prompt.WriteString("\n\n")
	}

	b.writeHistory(&prompt)

	prompt.WriteString(fmt.Sprintf("User: %s\nAI:", b.userMessage))
	return prompt.String()
}

func preferenceDigest(prefs store.Preferences) string {
	var parts []string
	if prefs.Brand != "" {
		parts = append(parts, "brand "+prefs.Brand)
	}
	if prefs.BudgetMin != nil || prefs.BudgetMax != nil {
		budget := "budget "
		if prefs.BudgetMin != nil {
			budget += fmt.Sprintf("from £%.0f ", *prefs.BudgetMin)
		}
		if prefs.BudgetMax != nil {
			budget += fmt.Sprintf("up to £%.0f", *prefs.BudgetMax)
		}
		parts = append(parts, strings.TrimSpace(budget))
	}
	if prefs.Storage != "" {
		parts = append(parts, "storage "+prefs.Storage)
	}
	if prefs.DataUsage != "" {
		parts = append(parts, prefs.DataUsage+" data usage")
	}
	if len(prefs.Features) > 0 {
		parts = append(parts, "wants "+strings.Join(prefs.Features, ", "))
	}
	return strings.Join(parts, "; ")
}

func (b *Builder) writeHistory(prompt *strings.Builder) {
	window := b.history
	if len(window) > HistoryWindow {
		window = window[len(window)-HistoryWindow:]
	}
	prompt.WriteString("Chat History:\n")
	if len(window) == 0 {
		prompt.WriteString("(none)\n")
	}
	for _, turn := range window {
		label := "User"
		if turn.Role == store.RoleAssistant {
			label = "AI"
		}
		prompt.WriteString(fmt.Sprintf("%s: %s\n", label, turn.Content))
	}
	prompt.WriteString("\n")
}
