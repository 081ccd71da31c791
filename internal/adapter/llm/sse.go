package llm

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"

	"agentteam/internal/domain"
)

// maxStreamLine bounds a single streamed frame.
const maxStreamLine = 1024 * 1024 // 1 MB

// parseSSEStream reads streamed response lines from body and converts each
// payload into a StreamChunk using the provider-specific parseLine function.
// Both SSE "data: ..." frames and bare JSON lines (Ollama's NDJSON) are
// accepted. The returned channel is closed when the stream ends, the body is
// closed, or ctx is cancelled; the final chunk always has Done set.
func parseSSEStream(ctx context.Context, body io.ReadCloser, logger *slog.Logger, parseLine func(data []byte) (*domain.StreamChunk, error)) <-chan domain.StreamChunk {
	ch := make(chan domain.StreamChunk, 16)
	go func() {
		defer close(ch)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Bytes()

			// Skip empty lines and SSE comments.
			if len(line) == 0 || line[0] == ':' {
				continue
			}

			data := line
			if bytes.HasPrefix(line, []byte("data:")) {
				data = bytes.TrimSpace(line[len("data:"):])
			} else if line[0] != '{' {
				// Other SSE fields (event:, id:) and non-JSON noise.
				continue
			}

			// Common termination signal.
			if bytes.Equal(data, []byte("[DONE]")) {
				sendChunk(ctx, ch, domain.StreamChunk{Done: true})
				return
			}

			chunk, err := parseLine(data)
			if err != nil {
				// Malformed frames are skipped, not fatal.
				logger.Debug("skipping malformed stream frame", "frame", string(data))
				continue
			}
			if chunk == nil {
				continue
			}

			if !sendChunk(ctx, ch, *chunk) {
				return
			}
			if chunk.Done {
				return
			}
		}

		// EOF without a termination frame, or a read error: the final Done
		// chunk still goes out so consumers can unblock.
		sendChunk(ctx, ch, domain.StreamChunk{Done: true})
	}()
	return ch
}

func sendChunk(ctx context.Context, ch chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
