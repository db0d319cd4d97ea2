package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

func TestClassifyPermissionDenied(t *testing.T) {
	for _, code := range []pq.ErrorCode{"42501", "28000", "28P01"} {
		err := Classify(&pq.Error{Code: code})
		assert.ErrorIs(t, err, ErrPermissionDenied, "code %s", code)
	}
}

func TestClassifyUnavailable(t *testing.T) {
	for _, code := range []pq.ErrorCode{"08006", "53300", "57P01"} {
		err := Classify(&pq.Error{Code: code})
		assert.ErrorIs(t, err, ErrUnavailable, "code %s", code)
	}
}

func TestClassifyUnknown(t *testing.T) {
	err := Classify(&pq.Error{Code: "23505"}) // unique_violation
	assert.ErrorIs(t, err, ErrUnknown)

	err = Classify(errors.New("something else entirely"))
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestClassifyKeepsOriginalMessage(t *testing.T) {
	inner := &pq.Error{Code: "42501", Message: "permission denied for table orders"}
	err := Classify(fmt.Errorf("insert order: %w", inner))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "permission denied for table orders")
}
