package chat

// Pair groups a user message with its immediately following assistant
// response, if any. An unanswered user message pairs with nil.
type Pair struct {
	User      Message
	Assistant *Message
}

// Pairs computes the display grouping with a single forward scan over the
// flat message sequence. It is a derived view: computed fresh on every
// read, never stored. Assistant messages only pair with the user message
// directly before them.
func Pairs(messages []Message) []Pair {
	var pairs []Pair
	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		if msg.Type != MessageUser {
			continue
		}
		pair := Pair{User: msg}
		if i+1 < len(messages) && messages[i+1].Type == MessageAssistant {
			next := messages[i+1]
			pair.Assistant = &next
			i++ // the assistant message is consumed by this pair
		}
		pairs = append(pairs, pair)
	}
	return pairs
}
