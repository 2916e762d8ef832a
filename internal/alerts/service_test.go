package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionMet(t *testing.T) {
	above := Alert{Symbol: "AAPL", TargetPrice: 200, Above: true}
	assert.True(t, conditionMet(above, 200))
	assert.True(t, conditionMet(above, 250))
	assert.False(t, conditionMet(above, 199.99))

	below := Alert{Symbol: "AAPL", TargetPrice: 150, Above: false}
	assert.True(t, conditionMet(below, 150))
	assert.True(t, conditionMet(below, 120))
	assert.False(t, conditionMet(below, 150.01))
}
