package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

func TestEvaluationResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "evaluation_response.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	app := setupEvaluationApp(t)

	bodies := []string{
		`{"question":{"text":"What is the capital of France?","type":"multiple_choice","options":["Rome","Paris"],"correct_index":1},"answer":1}`,
		`{"question":{"id":"leaf","text":"What do leaves produce?","type":"open_ended","expected_answers":["glucose and oxygen"]},"answer":"They produce glucose and oxygen"}`,
		`{"question":{"text":"Explain recursion","type":"essay"},"answer":"a function calling itself"}`,
	}

	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/api/v2/quiz/evaluations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "1")

		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()

		var payload interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		require.NoError(t, schema.Validate(payload))
	}
}
