package models

// metadata keys attached to every stored chunk
const (
	MetaFileID = "file_id"
	MetaSource = "source"
	MetaChunk  = "chunk"

	ContextSeparator = "\n"
)

var (
	QASystemPromptTemplate = `You are a helpful AI assistant. Use the following context to answer the user's question. If the context is empty or not relevant, feel free to answer the question conversationally based on your own knowledge.

Context: %s`

	RewriteQuestionPrompt = `Given a chat history and the latest user question which might reference context in the chat history, formulate a standalone question which can be understood without the chat history. Do NOT answer the question, just reformulate it if needed and otherwise return it as is.`
)
