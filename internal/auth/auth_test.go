package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingSource struct{}

func (failingSource) Active(context.Context) (bool, error) {
	return false, errors.New("token store locked")
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, Require(ctx, Static(true)))
	assert.ErrorIs(t, Require(ctx, Static(false)), ErrSignedOut)
	assert.EqualError(t, Require(ctx, failingSource{}), "token store locked")
}
