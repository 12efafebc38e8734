package events

// Topic constants for domain events emitted by the quoting service.
const (
	TopicCartCreated   = "cart.created"
	TopicItemAdded     = "cart.item_added"
	TopicItemUpdated   = "cart.item_updated"
	TopicItemRemoved   = "cart.item_removed"
	TopicCardAttached  = "cart.card_attached"
	TopicCardDetached  = "cart.card_detached"
	TopicCartRebundled = "cart.rebundled"
	TopicQuoteComputed = "quote.computed"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicCartCreated,
		TopicItemAdded,
		TopicItemUpdated,
		TopicItemRemoved,
		TopicCardAttached,
		TopicCardDetached,
		TopicCartRebundled,
		TopicQuoteComputed,
	}
}
