package models

// Chunk represents a parsed chunk of a source document
type Chunk struct {
	Content string
	Index   int
}

// SearchResult is a retrieved chunk together with its similarity score
type SearchResult struct {
	Content    string
	Metadata   map[string]string
	Similarity float32
}

// roles of stored chat messages
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// ChatMessage is one side of a recorded conversation turn
type ChatMessage struct {
	Role    string
	Content string
}
