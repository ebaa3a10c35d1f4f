package session_test

import (
	"strings"
	"testing"

	"chat-fe/internal/llm"
	"chat-fe/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conversation(turns int) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: "sys"}}
	for i := 0; i < turns; i++ {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: "question"},
			llm.Message{Role: llm.RoleAssistant, Content: "answer"},
		)
	}
	return msgs
}

func TestWindow_ZeroPolicySendsEverything(t *testing.T) {
	transcript := conversation(5)

	window, stats := session.WindowPolicy{}.Apply(transcript)

	assert.Equal(t, transcript, window)
	assert.True(t, stats.Unbounded)
	assert.Equal(t, 0, stats.Skipped)
}

func TestWindow_MaxMessagesKeepsNewestTurns(t *testing.T) {
	transcript := append(conversation(3), llm.Message{Role: llm.RoleUser, Content: "latest"})

	window, stats := session.WindowPolicy{MaxMessages: 4}.Apply(transcript)

	require.Len(t, window, 4)
	assert.Equal(t, llm.RoleSystem, window[0].Role)
	assert.Equal(t, llm.RoleUser, window[1].Role)
	assert.Equal(t, "latest", window[len(window)-1].Content)
	assert.Equal(t, 2, stats.IncludedTurns)
	assert.Equal(t, len(transcript)-4, stats.Skipped)
	assert.False(t, stats.OverBudget)
}

func TestWindow_NeverOpensOnAssistant(t *testing.T) {
	transcript := conversation(3)

	// Three messages would split a turn; only whole turns are kept.
	window, _ := session.WindowPolicy{MaxMessages: 3}.Apply(transcript)

	require.Len(t, window, 3)
	assert.Equal(t, llm.RoleSystem, window[0].Role)
	assert.Equal(t, llm.RoleUser, window[1].Role)
	assert.Equal(t, llm.RoleAssistant, window[2].Role)
}

func TestWindow_TokenBudget(t *testing.T) {
	transcript := conversation(10)
	perTurn := session.EstimateTokens(transcript[1:3])
	budget := session.EstimateTokens(transcript[:1]) + 3*perTurn

	window, stats := session.WindowPolicy{TokenBudget: budget}.Apply(transcript)

	assert.Len(t, window, 1+3*2)
	assert.Equal(t, 3, stats.IncludedTurns)
	assert.LessOrEqual(t, stats.Tokens, budget)
}

func TestWindow_NewestTurnKeptOverBudget(t *testing.T) {
	transcript := append(conversation(2), llm.Message{
		Role:    llm.RoleUser,
		Content: strings.Repeat("long ", 100),
	})

	window, stats := session.WindowPolicy{TokenBudget: 10}.Apply(transcript)

	require.Len(t, window, 2)
	assert.Equal(t, llm.RoleSystem, window[0].Role)
	assert.Equal(t, transcript[len(transcript)-1], window[1])
	assert.True(t, stats.OverBudget)
}

func TestWindow_UnansweredTurnsStayGrouped(t *testing.T) {
	transcript := []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "failed"},
		{Role: llm.RoleUser, Content: "retry"},
		{Role: llm.RoleAssistant, Content: "ok"},
		{Role: llm.RoleUser, Content: "next"},
	}

	window, _ := session.WindowPolicy{MaxMessages: 3}.Apply(transcript)

	require.Len(t, window, 4)
	assert.Equal(t, "retry", window[1].Content)
	assert.Equal(t, "next", window[3].Content)
}

func TestWindow_Empty(t *testing.T) {
	window, stats := session.WindowPolicy{MaxMessages: 2}.Apply(nil)
	assert.Empty(t, window)
	assert.Equal(t, 0, stats.Included)
}

func TestEstimateTokens(t *testing.T) {
	msgs := []llm.Message{{Role: llm.RoleUser, Content: "héllo"}}
	assert.Equal(t, 5+4, session.EstimateTokens(msgs))
}
