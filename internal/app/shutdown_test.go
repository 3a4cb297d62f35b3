package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShutdownHandlerOrder(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), time.Second)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		sh.AddFunc(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, sh.Shutdown())
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// Повторный вызов ничего не закрывает.
	require.NoError(t, sh.Shutdown())
	assert.Len(t, order, 3)
}

func TestShutdownHandlerErrors(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), 50*time.Millisecond)
	boom := errors.New("boom")
	block := make(chan struct{})
	defer close(block)

	sh.AddFunc("stuck", func() error {
		<-block
		return nil
	})
	sh.AddFunc("broken", func() error { return boom })

	err := sh.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stuck: shutdown timeout")
}
