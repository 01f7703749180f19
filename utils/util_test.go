package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalet-oss/utils"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, utils.Clamp(3, 5, 10))
	assert.Equal(t, 10, utils.Clamp(12, 5, 10))
	assert.Equal(t, 7, utils.Clamp(7, 5, 10))
	assert.Equal(t, 0.5, utils.Clamp(0.5, 0.0, 1.0))
}

func TestNonNegative(t *testing.T) {
	assert.Equal(t, 0, utils.NonNegative(-3))
	assert.Equal(t, 3, utils.NonNegative(3))
	assert.Equal(t, 0.0, utils.NonNegative(-0.5))
}
