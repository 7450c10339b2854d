package embedding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildResponse_IndexesFollowInputOrder(t *testing.T) {
	resp := BuildResponse("m1", [][]float32{{1}, {2}, {3}}, Usage{})

	require.Equal(t, "list", resp.Object)
	require.Equal(t, "m1", resp.Model)
	require.Len(t, resp.Data, 3)
	for i, d := range resp.Data {
		require.Equal(t, "embedding", d.Object)
		require.Equal(t, i, d.Index)
	}
	require.Equal(t, []float32{2}, resp.Data[1].Embedding)
}

func TestApproximateUsage_CharsDividedByFour(t *testing.T) {
	require.Equal(t, Usage{PromptTokens: 1, TotalTokens: 1}, ApproximateUsage([]string{"abcd"}))
	require.Equal(t, Usage{PromptTokens: 0, TotalTokens: 0}, ApproximateUsage([]string{"ab"}))
	require.Equal(t, Usage{PromptTokens: 2, TotalTokens: 2}, ApproximateUsage([]string{"abcd", "wxyz"}))
}
