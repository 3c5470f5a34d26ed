package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation(t *testing.T) {
	err := fmt.Errorf("save order: %w", Validation("email", "invalid email format"))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Field)
	assert.Equal(t, "save order: email: invalid email format", err.Error())
	assert.Equal(t, "Missing customer information", Validation("", "Missing customer information").Error())
}

func TestGateway_Unwraps(t *testing.T) {
	err := Gateway("payment service timed out", context.DeadlineExceeded)

	var ge *GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "payment service timed out", ge.Message)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
