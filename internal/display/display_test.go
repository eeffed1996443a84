package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptional(t *testing.T) {
	f := 92.346
	i := 12345

	assert.Equal(t, Missing, OptionalFloat(nil, 2))
	assert.Equal(t, "92.35", OptionalFloat(&f, 2))
	assert.Equal(t, Missing, OptionalPercent(nil))
	assert.Equal(t, "92.3%", OptionalPercent(&f))
	assert.Equal(t, Missing, OptionalSeconds(nil))
	assert.Equal(t, Missing, OptionalInt(nil))
	assert.Equal(t, "12,345", OptionalInt(&i))
	assert.Equal(t, Missing, OptionalString(""))
	assert.Equal(t, "x", OptionalString("x"))
}
