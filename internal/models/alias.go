package models

// aliases maps OpenAI model names to the identifiers the registry is loaded
// with. The mapped models do not match OpenAI's dimensionality; callers
// switching between aliases get whatever size the backing model produces.
var aliases = map[string]string{
	"text-embedding-ada-002": "sentence-transformers/all-MiniLM-L6-v2",
	"text-embedding-3-small": "BAAI/bge-m3",
	"text-embedding-3-large": "BAAI/bge-m3",
}

// ResolveAlias maps an externally-facing model name to its registry
// identifier. Unrecognized names pass through unchanged, so canonical
// identifiers work on the OpenAI-compatible surface too.
func ResolveAlias(name string) string {
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}
