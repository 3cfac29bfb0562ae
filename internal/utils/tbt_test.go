// internal/utils/tbt_test.go
package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTBTCode(t *testing.T) {
	code, err := GenerateTBTCode()
	require.NoError(t, err)

	assert.True(t, ValidateTBTCode(code))
	assert.Contains(t, code, fmt.Sprintf("TBT-%d-", time.Now().Year()))
}

func TestValidateTBTCode(t *testing.T) {
	valid := []string{
		"TBT-2026-A1B2C3",
		"TBT-1999-000000",
		"TBT-2026-ZZZZZZ",
	}
	for _, code := range valid {
		assert.True(t, ValidateTBTCode(code), code)
	}

	invalid := []string{
		"",
		"TBT-2026-a1b2c3",
		"TBT-26-A1B2C3",
		"TBT-2026-A1B2C",
		"TBT-2026-A1B2C34",
		"TBT-2026-A1B2C!",
		"XYZ-2026-A1B2C3",
		" TBT-2026-A1B2C3",
	}
	for _, code := range invalid {
		assert.False(t, ValidateTBTCode(code), code)
	}
}

func TestNormalizeTBTCode(t *testing.T) {
	assert.Equal(t, "TBT-2026-A1B2C3", NormalizeTBTCode(" tbt-2026-a1b2c3 "))
	assert.Equal(t, "TBT-2026-A1B2C3", NormalizeTBTCode("TBT-2026-A1B2C3"))
	assert.Equal(t, "", NormalizeTBTCode("   "))
}
