package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelList_SplitsAndTrims(t *testing.T) {
	cfg := Config{Models: " BAAI/bge-m3 , sentence-transformers/all-MiniLM-L6-v2,, "}
	require.Equal(t, []string{"BAAI/bge-m3", "sentence-transformers/all-MiniLM-L6-v2"}, cfg.ModelList())
}

func TestModelList_EmptyValue(t *testing.T) {
	var cfg Config
	require.Empty(t, cfg.ModelList())
}

func TestDefaultConfig_PreloadsTwoModels(t *testing.T) {
	cfg := DefaultConfig()
	require.Len(t, cfg.ModelList(), 2)
	require.Equal(t, "local", cfg.DefaultProvider)
}
