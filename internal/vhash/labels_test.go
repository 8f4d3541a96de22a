package vhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeLabels(t *testing.T) {
	ids, classes := EncodeLabels([]string{"spam", "ham", "spam", "eggs"})
	assert.Equal(t, []string{"eggs", "ham", "spam"}, classes)
	assert.Equal(t, []int{2, 1, 2, 0}, ids)

	intIDs, intClasses := EncodeLabels([]int{10, 3, 10})
	assert.Equal(t, []int{3, 10}, intClasses)
	assert.Equal(t, []int{1, 0, 1}, intIDs)

	emptyIDs, emptyClasses := EncodeLabels([]string(nil))
	assert.Empty(t, emptyIDs)
	assert.Empty(t, emptyClasses)
}

func TestValidateLabels(t *testing.T) {
	n, err := validateLabels(3, []int{0, 4, 1})
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = validateLabels(2, []int{0})
	assert.Error(t, err)
	_, err = validateLabels(1, []int{-2})
	assert.Error(t, err)
}
