package embedding

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func unmarshalInput(t *testing.T, raw string) (*Input, error) {
	t.Helper()
	var in Input
	err := json.Unmarshal([]byte(raw), &in)
	return &in, err
}

func TestInput_SingleString(t *testing.T) {
	in, err := unmarshalInput(t, `"hello"`)
	require.NoError(t, err)

	texts, err := in.Normalize()
	require.NoError(t, err)
	require.Equal(t, []string{"hello"}, texts)
}

func TestInput_ListPreservesOrder(t *testing.T) {
	in, err := unmarshalInput(t, `["a","b","c"]`)
	require.NoError(t, err)

	texts, err := in.Normalize()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, texts)
}

func TestInput_EmptyStringRejected(t *testing.T) {
	for _, raw := range []string{`""`, `"   "`} {
		in, err := unmarshalInput(t, raw)
		require.NoError(t, err)

		_, err = in.Normalize()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "Input string cannot be empty", verr.Message)
	}
}

func TestInput_EmptyListRejected(t *testing.T) {
	in, err := unmarshalInput(t, `[]`)
	require.NoError(t, err)

	_, err = in.Normalize()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Input list cannot be empty", verr.Message)
}

func TestInput_NonStringItemRejected(t *testing.T) {
	_, err := unmarshalInput(t, `["a", 42]`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "All items in input list must be strings", verr.Message)
}

func TestInput_EmptyItemInListRejected(t *testing.T) {
	in, err := unmarshalInput(t, `["a", "  "]`)
	require.NoError(t, err)

	_, err = in.Normalize()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Input list cannot contain empty strings", verr.Message)
}

func TestInput_OtherJSONShapesRejected(t *testing.T) {
	for _, raw := range []string{`42`, `{"text":"hi"}`, `true`} {
		_, err := unmarshalInput(t, raw)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "raw=%s", raw)
	}
}
