package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 10.13, Round(10.125))
	assert.Equal(t, 0.3, Round(0.1+0.2))
	assert.Equal(t, -4.5, Round(-4.499999))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "10000.00", Format(10000))
	assert.Equal(t, "0.30", Format(0.1+0.2))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.6, Sum(0.1, 0.2, 0.3))
	assert.Equal(t, 0.0, Sum())
}
