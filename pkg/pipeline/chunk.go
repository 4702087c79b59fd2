package pipeline

import "strings"

// ChunkText splits text into overlapping windows. Each chunk holds at most
// chunkSize bytes and consecutive chunks share overlap bytes, so no
// sentence is lost at a boundary. Empty input yields no chunks.
func ChunkText(text string, chunkSize, overlap int) []string {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}

	if chunkSize <= 0 {
		return []string{t}
	}

	var chunks []string

	n := len(t)
	start := 0

	for start < n {
		end := start + chunkSize
		if end > n {
			end = n
		}

		chunks = append(chunks, t[start:end])

		if end == n {
			break
		}

		next := end - overlap
		if next < 0 {
			next = 0
		}

		start = next
	}

	return chunks
}
