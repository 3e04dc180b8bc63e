package validator_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dispatch/internal/validator"
)

func TestValidateAcceptsPresentDeps(t *testing.T) {
	require.NoError(t, validator.Validate("component", zap.NewNop(), 5, "name"))
}

func TestValidateRejectsMissingDeps(t *testing.T) {
	var logger *zap.Logger

	require.Error(t, validator.Validate("component", logger))
	require.Error(t, validator.Validate("component", nil))
	require.Error(t, validator.Validate("component", 0))

	var fn func()
	require.Error(t, validator.Validate("component", fn))
}
