package session

import (
	"unicode/utf8"

	"chat-fe/internal/llm"
)

// messageOverhead is the fixed per-message cost added by EstimateTokens for
// role and framing.
const messageOverhead = 4

// WindowPolicy bounds the part of the transcript sent to the completion
// client on each turn. A zero field leaves that dimension unbounded, so the
// zero policy sends the whole transcript.
type WindowPolicy struct {
	MaxMessages int
	TokenBudget int
}

// WindowStats describes what Apply kept.
type WindowStats struct {
	Tokens        int
	Included      int
	Skipped       int
	OverBudget    bool
	Unbounded     bool
	IncludedTurns int
}

func (p WindowPolicy) Unbounded() bool {
	return p.MaxMessages <= 0 && p.TokenBudget <= 0
}

// Apply returns the leading system preamble plus the newest whole turns that
// fit the policy, oldest first. A turn starts at a user message, so the
// window never opens on an assistant reply. The newest turn is always kept,
// even when it alone exceeds the limits; OverBudget is set in that case.
func (p WindowPolicy) Apply(transcript []llm.Message) ([]llm.Message, WindowStats) {
	if p.Unbounded() {
		return transcript, WindowStats{
			Tokens:    EstimateTokens(transcript),
			Included:  len(transcript),
			Unbounded: true,
		}
	}
	if len(transcript) == 0 {
		return nil, WindowStats{}
	}

	var preamble []llm.Message
	rest := transcript
	if transcript[0].Role == llm.RoleSystem {
		preamble, rest = transcript[:1], transcript[1:]
	}

	tokens := EstimateTokens(preamble)
	start := len(rest)
	turns := 0
	overBudget := false

	spans := turnSpans(rest)
	for i := len(spans) - 1; i >= 0; i-- {
		span := spans[i]
		cost := EstimateTokens(rest[span[0]:span[1]])
		count := len(rest) - span[0]
		fits := (p.TokenBudget <= 0 || tokens+cost <= p.TokenBudget) &&
			(p.MaxMessages <= 0 || count <= p.MaxMessages)
		if !fits {
			if turns > 0 {
				break
			}
			overBudget = true
		}
		tokens += cost
		start = span[0]
		turns++
		if overBudget {
			break
		}
	}

	window := make([]llm.Message, 0, len(preamble)+len(rest)-start)
	window = append(window, preamble...)
	window = append(window, rest[start:]...)
	return window, WindowStats{
		Tokens:        tokens,
		Included:      len(window),
		Skipped:       len(transcript) - len(window),
		OverBudget:    overBudget,
		IncludedTurns: turns,
	}
}

// turnSpans splits msgs into contiguous [start, end) spans, each beginning at
// a user message. Messages before the first user message form their own span.
func turnSpans(msgs []llm.Message) [][2]int {
	var spans [][2]int
	start := 0
	for i := 1; i <= len(msgs); i++ {
		if i == len(msgs) || msgs[i].Role == llm.RoleUser {
			spans = append(spans, [2]int{start, i})
			start = i
		}
	}
	return spans
}

// EstimateTokens is a deterministic stand-in for a tokenizer: the rune count
// of each message plus a fixed overhead per message.
func EstimateTokens(msgs []llm.Message) int {
	total := 0
	for _, msg := range msgs {
		total += utf8.RuneCountInString(msg.Content) + messageOverhead
	}
	return total
}
