package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestActionName(t *testing.T) {
	assert.Equal(t, "confirm", Request{Action: "confirm"}.ActionName())
	assert.Equal(t, UnknownAction, Request{}.ActionName())
	assert.Equal(t, UnknownAction, Request{Action: "   "}.ActionName())
}

func TestDefaultResponse(t *testing.T) {
	t.Run("echoes request version", func(t *testing.T) {
		resp := DefaultResponse(Request{Action: "ping", Version: "2.3.0"})
		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, DefaultMessage, resp.Message)
		assert.Equal(t, "2.3.0", resp.Version)
	})

	t.Run("falls back to default version", func(t *testing.T) {
		resp := DefaultResponse(Request{Action: "ping"})
		assert.Equal(t, "1.0.0", resp.Version)
	})
}

func TestDispatchErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &DispatchError{Node: "orders", Action: "confirm", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"confirm"`)
	assert.Contains(t, err.Error(), `"orders"`)

	var de *DispatchError
	assert.ErrorAs(t, error(err), &de)
}
