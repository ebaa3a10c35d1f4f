package chat

import (
	"fmt"
	"io"

	"chat-fe/internal/llm"
)

// WriterRenderer renders a conversation as plain text lines.
type WriterRenderer struct {
	Out io.Writer
	// ReplyOnly limits output to assistant replies and notices.
	ReplyOnly bool
}

func (w WriterRenderer) RenderMessage(msg llm.Message) {
	switch msg.Role {
	case llm.RoleSystem:
		return
	case llm.RoleUser:
		if w.ReplyOnly {
			return
		}
		fmt.Fprintf(w.Out, "You: %s\n", msg.Content)
	default:
		if w.ReplyOnly {
			fmt.Fprintln(w.Out, msg.Content)
			return
		}
		fmt.Fprintf(w.Out, "Assistant: %s\n", msg.Content)
	}
}

func (w WriterRenderer) RenderNotice(notice Notice) {
	fmt.Fprintf(w.Out, "Error: %s\n", notice.Text)
}

// RenderTranscript renders every visible message of transcript in order.
func RenderTranscript(r Renderer, transcript []llm.Message) {
	for _, msg := range transcript {
		if msg.Role == llm.RoleSystem {
			continue
		}
		r.RenderMessage(msg)
	}
}
