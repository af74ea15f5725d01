package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"
)

func TestRunLockAcquire(t *testing.T) {
	t.Run("takes a free lock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("SET", runLockKey, "run-1", "NX", "EX", "7200")).
			Return(mock.Result(mock.ValkeyString("OK")))

		service := NewRunLockService(client, 7200)

		acquired, err := service.Acquire(context.Background(), "run-1")

		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("reports a held lock without error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("SET", runLockKey, "run-2", "NX", "EX", "7200")).
			Return(mock.Result(mock.ValkeyNil()))

		service := NewRunLockService(client, 7200)

		acquired, err := service.Acquire(context.Background(), "run-2")

		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("surfaces cache failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("SET", runLockKey, "run-3", "NX", "EX", "7200")).
			Return(mock.ErrorResult(fmt.Errorf("connection refused")))

		service := NewRunLockService(client, 7200)

		_, err := service.Acquire(context.Background(), "run-3")

		assert.Error(t, err)
	})
}

func TestRunLockRelease(t *testing.T) {
	t.Run("deletes only while held, in one atomic command", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("EVAL", releaseLockScript, "1", runLockKey, "run-1")).
			Return(mock.Result(mock.ValkeyInt64(1)))

		service := NewRunLockService(client, 7200)

		require.NoError(t, service.Release(context.Background(), "run-1"))
	})

	t.Run("leaves a lock taken over by another run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("EVAL", releaseLockScript, "1", runLockKey, "run-1")).
			Return(mock.Result(mock.ValkeyInt64(0)))

		service := NewRunLockService(client, 7200)

		require.NoError(t, service.Release(context.Background(), "run-1"))
	})

	t.Run("surfaces cache failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("EVAL", releaseLockScript, "1", runLockKey, "run-1")).
			Return(mock.ErrorResult(fmt.Errorf("connection refused")))

		service := NewRunLockService(client, 7200)

		assert.Error(t, service.Release(context.Background(), "run-1"))
	})
}

func TestRunLockIsHeld(t *testing.T) {
	t.Run("held", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("EXISTS", runLockKey)).
			Return(mock.Result(mock.ValkeyInt64(1)))

		service := NewRunLockService(client, 7200)

		held, err := service.IsHeld(context.Background())

		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("free", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewClient(ctrl)

		client.EXPECT().
			Do(gomock.Any(), mock.Match("EXISTS", runLockKey)).
			Return(mock.Result(mock.ValkeyInt64(0)))

		service := NewRunLockService(client, 7200)

		held, err := service.IsHeld(context.Background())

		require.NoError(t, err)
		assert.False(t, held)
	})
}
