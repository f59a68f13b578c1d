package workflow

import "fmt"

// ConfigurationError reports a malformed or incomplete workflow graph.
// It is a client fault: surfaced as HTTP 400 and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// RetrievalError reports a vector store failure during context retrieval.
// It escapes the engine only when the deployment runs fail-closed.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieving context: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports a failed LLM call. It is terminal for the request;
// the provider's message is kept verbatim for diagnosability.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
