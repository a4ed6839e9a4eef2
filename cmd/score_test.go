package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "-", formatScore(nil))

	v := 72.25
	assert.Equal(t, "72.2", formatScore(&v))

	zero := 0.0
	assert.Equal(t, "0.0", formatScore(&zero))
}
