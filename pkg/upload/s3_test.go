package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wablabs/vectorbench/pkg/config"
)

func TestResolvePrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		baseName string
		want     string
	}{
		{
			name:     "default prefix",
			prefix:   "",
			baseName: "9f3a2c1e-benchmark",
			want:     "results/9f3a2c1e-benchmark",
		},
		{
			name:     "custom prefix",
			prefix:   "my-project/benchmarks",
			baseName: "9f3a2c1e-benchmark",
			want:     "my-project/benchmarks/9f3a2c1e-benchmark",
		},
		{
			name:     "trailing slash stripped",
			prefix:   "my-prefix/",
			baseName: "run123",
			want:     "my-prefix/run123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &s3Uploader{
				cfg: &config.S3UploadConfig{Prefix: tt.prefix},
			}
			got := u.resolvePrefix(tt.baseName)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantPrefix string
	}{
		{
			name:       "json file",
			path:       "results/summary.json",
			wantPrefix: "application/json",
		},
		{
			name:       "csv file",
			path:       "results/results.csv",
			wantPrefix: "text/csv",
		},
		{
			name:       "no extension",
			path:       "results/Makefile",
			wantPrefix: "application/octet-stream",
		},
		{
			name:       "txt file",
			path:       "results/notes.txt",
			wantPrefix: "text/plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectContentType(tt.path)
			assert.Contains(t, got, tt.wantPrefix)
		})
	}
}
