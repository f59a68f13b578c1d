package workflow

import "encoding/json"

// Graph is the declarative workflow payload submitted by a caller.
// Nodes carry role-specific configuration in their Data map; edges describe
// the topology the caller drew but are not consulted for execution order —
// execution is a fixed retrieval → search → generation pipeline.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Query string `json:"query"`
}

// Node is a single workflow node. Its role (knowledge base, LLM engine) is
// carried by the "label" field inside Data, matching the payload produced by
// the canvas frontend.
type Node struct {
	ID   string                     `json:"id"`
	Type string                     `json:"type"`
	Data map[string]json.RawMessage `json:"data"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Role labels recognized by the engine. Nodes with other labels are ignored.
const (
	LabelKnowledgeBase = "KnowledgeBase"
	LabelLLMEngine     = "LLM Engine"
)

// DefaultPrompt is used when the LLM Engine node carries no custom prompt.
const DefaultPrompt = "Based on the context, answer the user question."

// KnowledgeBaseConfig is the typed configuration of a KnowledgeBase node.
type KnowledgeBaseConfig struct {
	NodeID string
}

// LLMEngineConfig is the typed configuration of an LLM Engine node, with
// defaults already applied.
type LLMEngineConfig struct {
	NodeID    string
	Prompt    string
	WebSearch bool
}

// Plan is the validated execution plan resolved from a Graph.
// KnowledgeBase is nil when the graph has no such node; LLM is always set.
type Plan struct {
	Query         string
	KnowledgeBase *KnowledgeBaseConfig
	LLM           LLMEngineConfig
}
