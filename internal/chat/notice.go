package chat

import (
	"errors"

	"chat-fe/internal/config"
)

type NoticeKind int

const (
	// NoticeNotReady is shown for a turn submitted while the client is not ready.
	NoticeNotReady NoticeKind = iota + 1
	// NoticeConfig is the standing notice for a session that could not start
	// its client.
	NoticeConfig
	// NoticeRequestFailed is shown for a completion call that failed.
	NoticeRequestFailed
	// NoticeAuthFailed is a failed completion call that will not succeed on
	// retry; the session stops sending requests after it.
	NoticeAuthFailed
)

const (
	notReadyText      = "Chat client not ready. Check server configuration."
	missingConfigText = "Server configuration missing. Please set PROJECT_ENDPOINT and MODEL_DEPLOYMENT as environment variables."
)

// Notice is a user-facing error message. Notices are displayed, never added
// to the transcript.
type Notice struct {
	Kind NoticeKind
	Text string
	Err  error
}

func (n Notice) String() string {
	return n.Text
}

func notReadyNotice() Notice {
	return Notice{Kind: NoticeNotReady, Text: notReadyText}
}

func configNotice(err error) Notice {
	if errors.Is(err, config.ErrMissingChatConfig) {
		return Notice{Kind: NoticeConfig, Text: missingConfigText, Err: err}
	}
	return Notice{Kind: NoticeConfig, Text: "Initialization error: " + err.Error(), Err: err}
}

func requestNotice(err error, permanent bool) Notice {
	kind := NoticeRequestFailed
	if permanent {
		kind = NoticeAuthFailed
	}
	return Notice{Kind: kind, Text: "Request failed: " + err.Error(), Err: err}
}
