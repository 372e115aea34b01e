package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"classified", E(KindTransport, "push", errors.New("503")), KindTransport},
		{"wrapped classified", fmt.Errorf("run: %w", E(KindAuthentication, "token", errors.New("denied"))), KindAuthentication},
		{"sentinel not found", fmt.Errorf("members: %w", ErrNotFound), KindNotFound},
		{"sentinel exists", ErrAlreadyExists, KindAlreadyExists},
		{"plain", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestEKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := E(KindTransport, "query", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "query: transport: connection refused", err.Error())
	assert.Nil(t, E(KindTransport, "query", nil))
}

func TestFatal(t *testing.T) {
	assert.True(t, Fatal(Errorf(KindConfiguration, "load", "missing %s", "SOURCE_BASE_URL")))
	assert.False(t, Fatal(E(KindPersistence, "ledger", errors.New("disk full"))))
	assert.False(t, Fatal(E(KindValidation, "transform", errors.New("email"))))
	assert.False(t, Fatal(nil))
}
