package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMaskStripsClosingPoint(t *testing.T) {
	closed := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	got := NormalizeMask(closed)
	assert.Equal(t, MaskPolygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, got)
}

func TestNormalizeMaskOpenInputUnchanged(t *testing.T) {
	open := []Point{{0, 0}, {10, 0}, {5, 8}}
	assert.Equal(t, MaskPolygon(open), NormalizeMask(open))
}

func TestNormalizeMaskDegenerate(t *testing.T) {
	assert.Nil(t, NormalizeMask(nil))
	assert.Nil(t, NormalizeMask([]Point{{1, 1}, {2, 2}}))
	// closed "triangle" that is really a segment
	assert.Nil(t, NormalizeMask([]Point{{1, 1}, {2, 2}, {1, 1}}))
}
