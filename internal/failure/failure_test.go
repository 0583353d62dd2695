package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinelThroughWrapping(t *testing.T) {
	base := ElementNotFound("resolve target", ".boss-chat-editor-input", context.DeadlineExceeded)
	wrapped := fmt.Errorf("send message: %w", base)

	assert.True(t, errors.Is(wrapped, ErrElementNotFound))
	assert.False(t, errors.Is(wrapped, ErrAttachFailure))
	assert.True(t, errors.Is(wrapped, context.DeadlineExceeded), "cause must stay reachable")

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindElementNotFound, kind)
	assert.Equal(t, "ELEMENT_NOT_FOUND", Label(wrapped))
}

func TestIsFatalOnlyForAttachFailure(t *testing.T) {
	assert.True(t, IsFatal(AttachFailure("http://127.0.0.1:9333", errors.New("connection refused"))))
	assert.False(t, IsFatal(ElementNotFound("click", ".x", nil)))
	assert.False(t, IsFatal(EvaluationGap("snapshot", "detail panel")))
	assert.False(t, IsFatal(errors.New("boom")))
	assert.Equal(t, "UNCLASSIFIED", Label(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	err := ElementNotFound("resolve target", ".submit", errors.New("timeout"))
	assert.Equal(t, `resolve target: element not found ".submit": timeout`, err.Error())

	gap := EvaluationGap("", "resume panel")
	assert.Equal(t, `evaluation gap "resume panel"`, gap.Error())
}
