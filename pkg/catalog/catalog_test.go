package catalog

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
categories:
  - name: small
    description: Small API specs (< 100 KB)
    workloads:
      - name: petstore
        provider: swagger.io
        url: https://petstore3.swagger.io/api/v3/openapi.json
        size_kb: 40
      - name: httpbin
        provider: httpbin.org
        url: https://httpbin.org/spec.json
        size_kb: 60
  - name: medium
    description: Medium API specs
    workloads:
      - name: github
        provider: github.com
        url: https://example.com/github.json
        size_kb: 4000
`

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func TestParse(t *testing.T) {
	cat, err := Parse(testLog(), []byte(testCatalog))
	require.NoError(t, err)

	assert.Equal(t, []string{"small", "medium"}, cat.CategoryNames())

	small := cat.Categories()[0]
	require.Len(t, small.Workloads, 2)
	assert.Equal(t, "small", small.Workloads[0].Category)
	assert.Equal(t, "petstore", small.Workloads[0].Name)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing category name",
			yaml: "categories:\n  - description: x\n",
		},
		{
			name: "duplicate category",
			yaml: "categories:\n  - name: small\n  - name: small\n",
		},
		{
			name: "workload without url",
			yaml: "categories:\n  - name: small\n    workloads:\n      - name: petstore\n",
		},
		{
			name: "not yaml",
			yaml: "{invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(testLog(), []byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestResolve_Order(t *testing.T) {
	cat, err := Parse(testLog(), []byte(testCatalog))
	require.NoError(t, err)

	// Selection order does not matter; catalog declaration order wins.
	refs := cat.Resolve([]string{"medium", "small"})

	require.Len(t, refs, 3)
	assert.Equal(t, "petstore", refs[0].Name)
	assert.Equal(t, "httpbin", refs[1].Name)
	assert.Equal(t, "github", refs[2].Name)
}

func TestResolve_UnknownCategory(t *testing.T) {
	cat, err := Parse(testLog(), []byte(testCatalog))
	require.NoError(t, err)

	refs := cat.Resolve([]string{"huge"})
	assert.Empty(t, refs)

	refs = cat.Resolve([]string{"small", "huge"})
	assert.Len(t, refs, 2)
}
