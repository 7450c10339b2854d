package embedding

// Data is a single embedding result paired with the zero-based index of the
// input it was produced from.
type Data struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// Usage reports token accounting for a request. The native surface always
// reports zero; the OpenAI-compatible surface reports an approximation.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is the success body shared by both API surfaces.
type Response struct {
	Object string `json:"object"`
	Data   []Data `json:"data"`
	Model  string `json:"model"`
	Usage  Usage  `json:"usage"`
}

// BuildResponse assembles a response from ordered vectors. Entry i carries
// index i and the vector for input i.
func BuildResponse(model string, vectors [][]float32, usage Usage) Response {
	data := make([]Data, len(vectors))
	for i, v := range vectors {
		data[i] = Data{Object: "embedding", Embedding: v, Index: i}
	}
	return Response{Object: "list", Data: data, Model: model, Usage: usage}
}

// ApproximateUsage estimates token counts as total input characters divided by
// four. Both prompt and total report the same value.
func ApproximateUsage(texts []string) Usage {
	chars := 0
	for _, t := range texts {
		chars += len(t)
	}
	tokens := chars / 4
	return Usage{PromptTokens: tokens, TotalTokens: tokens}
}
