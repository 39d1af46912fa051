package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", NewNotFound(KindUser, "42"), ErrorTypeNotFound},
		{"invalid", NewInvalidOperation("follow", "cannot follow yourself"), ErrorTypeInvalidOperation},
		{"persistence", NewPersistenceFailure(KindPost, "p1", "save", ErrWriteConflict), ErrorTypePersistence},
		{"partial", NewPartialWrite("follow", []string{"user/2"}, []string{"user/1"}, errors.New("disk full")), ErrorTypePartialWrite},
		{"config", NewConfigMissingRequired("PORT"), ErrorTypeConfig},
		{"wrapped", fmt.Errorf("handler: %w", NewNotFound(KindReply, "r9")), ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsErrorType(tt.err, tt.want))
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}

	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeNotFound))
	assert.False(t, IsErrorType(nil, ErrorTypeNotFound))
}

func TestPersistenceFailure_Conflict(t *testing.T) {
	err := NewPersistenceFailure(KindUser, "1", "save", fmt.Errorf("badger: %w", ErrWriteConflict))
	assert.True(t, err.IsConflict())
	assert.True(t, errors.Is(err, ErrWriteConflict))

	other := NewPersistenceFailure(KindUser, "1", "save", errors.New("io"))
	assert.False(t, other.IsConflict())
}

func TestPartialWrite_Message(t *testing.T) {
	err := NewPartialWrite("follow_unfollow", []string{Ref(KindUser, "2")}, []string{Ref(KindUser, "1")}, errors.New("timeout"))
	assert.Contains(t, err.Error(), "committed: user/2")
	assert.Contains(t, err.Error(), "failed: user/1")
	assert.Equal(t, "follow_unfollow", err.Operation)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewPersistenceFailure(KindUser, "1", "save", ErrWriteConflict)))
	assert.False(t, IsRetryable(NewPartialWrite("follow", nil, nil, nil)))
	assert.False(t, IsRetryable(NewNotFound(KindPost, "p")))
	assert.False(t, IsRetryable(NewInvalidOperation("follow", "self")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", NewNotFound(KindUser, "x"))))
	assert.False(t, IsNotFound(NewInvalidOperation("x", "y")))
}
