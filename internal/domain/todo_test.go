package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCompleted(t *testing.T) {
	t1 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	t.Run("entering completed stamps", func(t *testing.T) {
		var td Todo
		td.SetCompleted(true, t1)
		assert.True(t, td.Completed)
		require.NotNil(t, td.CompletedAt)
		assert.True(t, td.CompletedAt.Equal(t1))
	})

	t.Run("staying completed keeps stamp", func(t *testing.T) {
		var td Todo
		td.SetCompleted(true, t1)
		td.SetCompleted(true, t2)
		require.NotNil(t, td.CompletedAt)
		assert.True(t, td.CompletedAt.Equal(t1))
	})

	t.Run("leaving completed clears stamp", func(t *testing.T) {
		var td Todo
		td.SetCompleted(true, t1)
		td.SetCompleted(false, t2)
		assert.False(t, td.Completed)
		assert.Nil(t, td.CompletedAt)
	})

	t.Run("re-entering stamps again", func(t *testing.T) {
		var td Todo
		td.SetCompleted(true, t1)
		td.SetCompleted(false, t1)
		td.SetCompleted(true, t2)
		require.NotNil(t, td.CompletedAt)
		assert.True(t, td.CompletedAt.Equal(t2))
	})

	t.Run("pending stays pending", func(t *testing.T) {
		var td Todo
		td.SetCompleted(false, t1)
		assert.False(t, td.Completed)
		assert.Nil(t, td.CompletedAt)
	})

	t.Run("completed without stamp is repaired", func(t *testing.T) {
		td := Todo{Completed: true}
		td.SetCompleted(true, t2)
		require.NotNil(t, td.CompletedAt)
		assert.True(t, td.CompletedAt.Equal(t2))
	})
}
