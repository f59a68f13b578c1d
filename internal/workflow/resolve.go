package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Resolve validates a Graph and produces a typed execution Plan.
//
// Validation happens here, at parse time, rather than ad hoc during
// execution: duplicate node IDs and edges referencing unknown nodes are
// rejected, role configuration is decoded into typed structs, and defaults
// are applied explicitly. When several nodes carry the same role label, the
// first in sequence order wins.
func Resolve(g Graph) (Plan, error) {
	if strings.TrimSpace(g.Query) == "" {
		return Plan{}, &ConfigurationError{Reason: "query is required"}
	}

	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return Plan{}, &ConfigurationError{Reason: "node with empty id"}
		}
		if ids[n.ID] {
			return Plan{}, &ConfigurationError{Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		ids[n.ID] = true
	}

	for _, e := range g.Edges {
		if !ids[e.Source] {
			return Plan{}, &ConfigurationError{Reason: fmt.Sprintf("edge references unknown node %q", e.Source)}
		}
		if !ids[e.Target] {
			return Plan{}, &ConfigurationError{Reason: fmt.Sprintf("edge references unknown node %q", e.Target)}
		}
	}

	plan := Plan{Query: g.Query}
	var llmFound bool

	for _, n := range g.Nodes {
		switch nodeLabel(n) {
		case LabelKnowledgeBase:
			if plan.KnowledgeBase == nil {
				plan.KnowledgeBase = &KnowledgeBaseConfig{NodeID: n.ID}
			}
		case LabelLLMEngine:
			if llmFound {
				continue
			}
			llmFound = true
			cfg, err := decodeLLMConfig(n)
			if err != nil {
				return Plan{}, err
			}
			plan.LLM = cfg
		}
	}

	if !llmFound {
		return Plan{}, &ConfigurationError{Reason: "LLM Engine node is required"}
	}

	return plan, nil
}

// nodeLabel extracts data.label, or "" when absent or not a string.
func nodeLabel(n Node) string {
	raw, ok := n.Data["label"]
	if !ok {
		return ""
	}
	var label string
	if err := json.Unmarshal(raw, &label); err != nil {
		return ""
	}
	return label
}

func decodeLLMConfig(n Node) (LLMEngineConfig, error) {
	cfg := LLMEngineConfig{
		NodeID: n.ID,
		Prompt: DefaultPrompt,
	}

	if raw, ok := n.Data["prompt"]; ok {
		var prompt string
		if err := json.Unmarshal(raw, &prompt); err != nil {
			return cfg, &ConfigurationError{Reason: fmt.Sprintf("node %q: prompt must be a string", n.ID)}
		}
		if strings.TrimSpace(prompt) != "" {
			cfg.Prompt = prompt
		}
	}

	if raw, ok := n.Data["webSearch"]; ok {
		var enabled bool
		if err := json.Unmarshal(raw, &enabled); err != nil {
			return cfg, &ConfigurationError{Reason: fmt.Sprintf("node %q: webSearch must be a boolean", n.ID)}
		}
		cfg.WebSearch = enabled
	}

	return cfg, nil
}
