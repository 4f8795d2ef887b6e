package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSinkFuncNil(t *testing.T) {
	var f SinkFunc
	assert.NoError(t, f.SendFailure(context.Background(), FailurePayload{}))
}
