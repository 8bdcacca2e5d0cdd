package apiv1

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const specPath = "../../../public/docs/v1/openapi.yml"

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	require.NoError(t, err, "spec file must parse")
	require.NoError(t, doc.Validate(loader.Context), "spec must validate")

	return doc
}

func TestOpenAPISpecIsValid(t *testing.T) {
	doc := loadSpec(t)

	assert.Equal(t, "TrocaLar API", doc.Info.Title)
	assert.NotEmpty(t, doc.Info.Version)
}

func TestOpenAPISpecCoversRegisteredRoutes(t *testing.T) {
	doc := loadSpec(t)

	for _, path := range []string{
		"/ping",
		"/account",
		"/listings",
		"/photos/{uuid}/status",
		"/subscription",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s missing from spec", path)
	}

	// Ping is the only unauthenticated operation
	ping := doc.Paths.Find("/ping")
	require.NotNil(t, ping)
	require.NotNil(t, ping.Get)
	require.NotNil(t, ping.Get.Security)
	assert.Len(t, *ping.Get.Security, 0)
}

func TestOpenAPISpecDeclaresAPIKeyScheme(t *testing.T) {
	doc := loadSpec(t)

	scheme, ok := doc.Components.SecuritySchemes["ApiKeyAuth"]
	require.True(t, ok)
	require.NotNil(t, scheme.Value)
	assert.Equal(t, "apiKey", scheme.Value.Type)
	assert.Equal(t, "header", scheme.Value.In)
	assert.Equal(t, "X-API-Key", scheme.Value.Name)
}
