package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassSuccess},
		{"decode", fmt.Errorf("%w: invalid character", ErrDecode), ClassDecode},
		{"duplicate", fmt.Errorf("%w: e1", ErrDuplicateDelivery), ClassDuplicate},
		{"handler", fmt.Errorf("%w: smtp down", ErrHandler), ClassHandler},
		{"permanent handler", Permanent(fmt.Errorf("%w: no recipient", ErrHandler)), ClassHandler},
		{"unclassified", errors.New("boom"), ClassHandler},
		{"bus unavailable", bus.Unavailable(errors.New("down")), ClassAbort},
		{"cancelled", context.Canceled, ClassAbort},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ClassAbort},
		{"handler timeout after retries", fmt.Errorf("%w: %w", ErrHandler, context.DeadlineExceeded), ClassHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClass(t *testing.T) {
	assert.Equal(t, "ok", ClassSuccess.String())
	assert.Equal(t, "decode_error", ClassDecode.String())
	assert.Equal(t, "duplicate", ClassDuplicate.String())
	assert.Equal(t, "handler_error", ClassHandler.String())
	assert.Equal(t, "aborted", ClassAbort.String())

	assert.True(t, ClassDecode.Commits())
	assert.False(t, ClassAbort.Commits())
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	base := errors.New("no recipient")
	err := Permanent(base)
	assert.ErrorIs(t, err, ErrPermanent)
	assert.ErrorIs(t, err, base)
}
