package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/persona-engine/schemas"
)

func TestEmbeddedSchemas_Compile(t *testing.T) {
	for _, name := range []string{schemas.PersonaSet, schemas.EvaluationResult} {
		t.Run(name, func(t *testing.T) {
			data, err := schemas.FS.ReadFile(name)
			require.NoError(t, err)

			var v map[string]any
			require.NoError(t, json.Unmarshal(data, &v), "schema must be valid JSON")
			assert.NotEmpty(t, v["title"])

			_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			assert.NoError(t, err)
		})
	}
}
