package memory

// Transcript is the append-only message history of one conversation.
// It has a single writer; callers get copies.
type Transcript struct {
	msgs []Message
}

// NewTranscript seeds a transcript with a system prompt and a question.
func NewTranscript(systemPrompt, question string) *Transcript {
	return &Transcript{msgs: []Message{System(systemPrompt), User(question)}}
}

// FromMessages starts a transcript from existing messages.
func FromMessages(msgs []Message) *Transcript {
	return &Transcript{msgs: append([]Message(nil), msgs...)}
}

// Append adds m to the end of the transcript.
func (t *Transcript) Append(m Message) {
	t.msgs = append(t.msgs, m)
}

// Messages returns a copy of the messages in conversation order.
func (t *Transcript) Messages() []Message {
	return append([]Message(nil), t.msgs...)
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.msgs) }

// Last returns the newest message.
func (t *Transcript) Last() (Message, bool) {
	if len(t.msgs) == 0 {
		return Message{}, false
	}
	return t.msgs[len(t.msgs)-1], true
}
