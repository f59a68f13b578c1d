package ingest

import (
	"regexp"
	"strings"
)

const (
	maxChunkSize = 1000
	chunkOverlap = 200
)

var paragraphSplit = regexp.MustCompile(`\n{2,}`)

// SplitChunks breaks extracted text into paragraph-aligned chunks, further
// splitting oversized paragraphs into overlapping windows so no chunk
// exceeds maxChunkSize characters. Whether a document becomes one chunk or
// many is a function of its structure, not a fixed policy.
func SplitChunks(text string) []string {
	var out []string
	for _, p := range paragraphSplit.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, splitLong(p, maxChunkSize, chunkOverlap)...)
	}
	return out
}

func splitLong(s string, max, overlap int) []string {
	if len(s) <= max {
		return []string{s}
	}
	var res []string
	for i := 0; i < len(s); i += max - overlap {
		end := i + max
		if end > len(s) {
			end = len(s)
		}
		res = append(res, strings.TrimSpace(s[i:end]))
		if end == len(s) {
			break
		}
	}
	return res
}
