package timeout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretOutlastsSingleRequest(t *testing.T) {
	assert.Greater(t, InterpretTimeout, LLMRequestTimeout)
	assert.Positive(t, MaxTruncateLength)
}
