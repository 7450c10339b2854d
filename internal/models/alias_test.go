package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAlias_KnownOpenAINames(t *testing.T) {
	require.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", ResolveAlias("text-embedding-ada-002"))
	require.Equal(t, "BAAI/bge-m3", ResolveAlias("text-embedding-3-small"))
	require.Equal(t, "BAAI/bge-m3", ResolveAlias("text-embedding-3-large"))
}

func TestResolveAlias_IdentityOnUnknownNames(t *testing.T) {
	require.Equal(t, "unknown-model-xyz", ResolveAlias("unknown-model-xyz"))
	require.Equal(t, "BAAI/bge-m3", ResolveAlias("BAAI/bge-m3"))
	require.Equal(t, "", ResolveAlias(""))
}
