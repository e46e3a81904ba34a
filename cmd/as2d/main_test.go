package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortString_DefaultsWhenNonPositive(t *testing.T) {
	assert.Equal(t, "8080", portString(0))
	assert.Equal(t, "8080", portString(-1))
}

func TestPortString_FormatsPositivePort(t *testing.T) {
	assert.Equal(t, "10080", portString(10080))
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "42", itoa(42))
	assert.Equal(t, "-7", itoa(-7))
}
