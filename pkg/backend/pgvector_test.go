package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorLiteral(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
		want   string
	}{
		{name: "empty", vector: nil, want: "[]"},
		{name: "single", vector: []float32{1}, want: "[1]"},
		{name: "multiple", vector: []float32{0.5, -0.25, 2}, want: "[0.5,-0.25,2]"},
		{name: "zero", vector: []float32{0, 0}, want: "[0,0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vectorLiteral(tt.vector))
		})
	}
}
