package llm

import (
	"encoding/json"
	"fmt"

	"agentteam/internal/domain"
)

// BuildRequest assembles the headers and JSON body for one chat call without
// performing any I/O. Exposed so request shaping can be tested and inspected
// independently of the transport.
func BuildRequest(cfg Config, msgs []domain.Message, opts domain.ChatOptions, stream bool) (map[string]string, []byte, error) {
	d, err := dialectFor(cfg.Provider)
	if err != nil {
		return nil, nil, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	d.credentials(cfg, headers)

	body, err := json.Marshal(d.body(cfg, msgs, opts, stream))
	if err != nil {
		return nil, nil, fmt.Errorf("encode request: %w", err)
	}
	return headers, body, nil
}
