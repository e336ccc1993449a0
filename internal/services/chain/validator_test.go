package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/pkg/errors"
)

func TestValidator_MissingSideIsAnError(t *testing.T) {
	v := NewValidator(DefaultConfig())

	t.Run("no puts", func(t *testing.T) {
		report := v.Validate(newSnapshot(call(100, 10), call(105, 10)))

		assert.False(t, report.OK)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, CheckChainSides, report.Errors[0].Check)
		assert.NotEmpty(t, report.Errors[0].Hint)
		assert.True(t, errors.Is(report.Errors[0], errors.ErrDataIncomplete))
	})

	t.Run("no calls", func(t *testing.T) {
		report := v.Validate(newSnapshot(put(100, 10), put(95, 10)))
		assert.False(t, report.OK)
	})
}

func TestValidator_ThinChainWarns(t *testing.T) {
	v := NewValidator(DefaultConfig())

	report := v.Validate(balancedChain(100, 50))

	assert.True(t, report.OK, "a thin chain still analyzes")
	assert.True(t, report.HasWarning(CheckContractCount))
	require.Len(t, report.Warnings, 1)
	assert.True(t, errors.Is(report.Warnings[0], errors.ErrDataInsufficient))
}

func TestValidator_WideStrikeSpreadWarns(t *testing.T) {
	v := NewValidator(DefaultConfig())

	// (2500-10)/10 = 249, far past the 20x ratio bound
	report := v.Validate(newSnapshot(
		call(10, 10), call(2500, 10), put(100, 10),
	))

	assert.True(t, report.OK)
	assert.True(t, report.HasWarning(CheckStrikeSpread))

	for _, w := range report.Warnings {
		if w.Check == CheckStrikeSpread {
			assert.True(t, errors.Is(w, errors.ErrDataAnomalous))
		}
	}
}

func TestValidator_CleanChainPasses(t *testing.T) {
	v := NewValidator(DefaultConfig())

	report := v.Validate(balancedChain(200, 150))

	assert.True(t, report.OK)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.Errors)
}
