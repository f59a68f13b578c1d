package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload a PDF into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postFile(cmd.Context(), "/documents/upload", filepath.Base(path), data)
		if err != nil {
			return err
		}

		var result struct {
			ID         string `json:"id"`
			Filename   string `json:"filename"`
			ChunkCount int    `json:"chunk_count"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Ingested %s as %s (%d chunks)", result.Filename, result.ID, result.ChunkCount)
		return nil
	},
}

// --- query ---

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer a question against the knowledge base",
	Long: `Answer a question by running a retrieval + generation workflow.

Examples:
  weft query "What does the uploaded report say about Q3 revenue?"
  weft query --web-search "Who maintains pgvector?"
  weft query --no-kb --prompt "Answer in one sentence." "What is a weft thread?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		webSearch, _ := cmd.Flags().GetBool("web-search")
		noKB, _ := cmd.Flags().GetBool("no-kb")

		llmData := map[string]any{
			"label":     "LLM Engine",
			"webSearch": webSearch,
		}
		if prompt != "" {
			llmData["prompt"] = prompt
		}

		nodes := []map[string]any{
			{"id": "llm", "type": "custom", "data": llmData},
		}
		edges := []map[string]any{}
		if !noKB {
			nodes = append(nodes, map[string]any{
				"id":   "kb",
				"type": "custom",
				"data": map[string]any{"label": "KnowledgeBase"},
			})
			edges = append(edges, map[string]any{"source": "kb", "target": "llm"})
		}

		req := map[string]any{
			"nodes": nodes,
			"edges": edges,
			"query": args[0],
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/workflow/run", req)
		if err != nil {
			return err
		}

		var result struct {
			Answer        string `json:"answer"`
			ChunksUsed    int    `json:"chunks_used"`
			WebSearchUsed bool   `json:"web_search_used"`
			DurationMS    int64  `json:"duration_ms"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, result.Answer)
		printStatus("Chunks used", "%d", result.ChunksUsed)
		if result.WebSearchUsed {
			printStatus("Web search", "used")
		}
		printStatus("Duration", "%s", time.Duration(result.DurationMS)*time.Millisecond)
		return nil
	},
}

func init() {
	queryCmd.Flags().String("prompt", "", "custom instruction for the answer engine")
	queryCmd.Flags().Bool("web-search", false, "augment the answer with live web search")
	queryCmd.Flags().Bool("no-kb", false, "skip knowledge base retrieval")
}

// --- documents ---

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/documents")
		if err != nil {
			return err
		}

		var docs []struct {
			ID         string    `json:"id"`
			Filename   string    `json:"filename"`
			SizeBytes  int64     `json:"size_bytes"`
			ChunkCount int       `json:"chunk_count"`
			CreatedAt  time.Time `json:"created_at"`
		}
		if err := decodeJSON(resp, &docs); err != nil {
			return err
		}

		if len(docs) == 0 {
			fmt.Fprintln(os.Stdout, "no documents")
			return nil
		}
		for _, d := range docs {
			fmt.Fprintf(os.Stdout, "%s  %s  %d chunks  %s\n",
				d.ID, d.Filename, d.ChunkCount, d.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and its vectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/documents/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted document %s", args[0])
		return nil
	},
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
}
