package jsonpointer_test

import (
	"testing"

	"github.com/python-jsonschema/referencing/jsonpointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc() any {
	return map[string]any{
		"$defs": map[string]any{
			"N": map[string]any{"type": "integer"},
		},
		"a/b":  1.0,
		"c~d":  2.0,
		"list": []any{"x", "y", "z"},
	}
}

func TestEvaluateEmptyIsRoot(t *testing.T) {
	d := doc()
	v, err := jsonpointer.Evaluate("", d)
	require.NoError(t, err)
	assert.Equal(t, d, v)
}

func TestEvaluateObjectStep(t *testing.T) {
	v, err := jsonpointer.Evaluate("/$defs/N", doc())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "integer"}, v)
}

func TestEvaluateEscapedTokens(t *testing.T) {
	v, err := jsonpointer.Evaluate("/a~1b", doc())
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = jsonpointer.Evaluate("/c~0d", doc())
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestEvaluateArrayIndex(t *testing.T) {
	v, err := jsonpointer.Evaluate("/list/1", doc())
	require.NoError(t, err)
	assert.Equal(t, "y", v)
}

func TestEvaluateArrayOutOfBounds(t *testing.T) {
	_, err := jsonpointer.Evaluate("/list/99", doc())
	require.Error(t, err)
	var nfe *jsonpointer.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestEvaluateMissingMember(t *testing.T) {
	_, err := jsonpointer.Evaluate("/nope", doc())
	require.Error(t, err)
}

func TestEvaluateThroughScalarFails(t *testing.T) {
	_, err := jsonpointer.Evaluate("/a~1b/more", doc())
	require.Error(t, err)
}

func TestAppendRoundTrip(t *testing.T) {
	p := jsonpointer.Append("", "a/b")
	v, err := jsonpointer.Evaluate(p, doc())
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "/a~1b", p)
}
