package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", Shape{}, 1},
		{"vector", Shape{5}, 5},
		{"matrix", Shape{3, 4}, 12},
		{"3d", Shape{2, 3, 4}, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.NumElements())
		})
	}
}

func TestShape_Validate(t *testing.T) {
	assert.NoError(t, Shape{3, 4}.Validate())
	assert.NoError(t, Shape{}.Validate())
	assert.Error(t, Shape{3, 0}.Validate())
	assert.Error(t, Shape{-1, 4}.Validate())
}

func TestShape_Equal(t *testing.T) {
	assert.True(t, Shape{3, 4}.Equal(Shape{3, 4}))
	assert.False(t, Shape{3, 4}.Equal(Shape{4, 3}))
	assert.False(t, Shape{3, 4}.Equal(Shape{3, 4, 1}))
	assert.True(t, Shape{}.Equal(Shape{}))
}

func TestShape_Clone(t *testing.T) {
	s := Shape{3, 4}
	c := s.Clone()
	c[0] = 99
	assert.Equal(t, 3, s[0], "Clone must not alias the original")
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{7}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Shape
		want      Shape
		broadcast bool
	}{
		{"same shape", Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false},
		{"column vs matrix", Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true},
		{"row vs matrix", Shape{1, 5}, Shape{3, 5}, Shape{3, 5}, true},
		{"missing leading dim", Shape{5}, Shape{3, 5}, Shape{3, 5}, true},
		{"scalar vs matrix", Shape{}, Shape{3, 5}, Shape{3, 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, broadcast, err := BroadcastShapes(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}
}

func TestBroadcastShapes_Incompatible(t *testing.T) {
	_, _, err := BroadcastShapes(Shape{3, 4}, Shape{3, 5})
	require.Error(t, err)
}
