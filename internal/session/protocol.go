// Package session implements the per-agent Session and its three
// cooperative tasks: Materializer, Dispatcher, and Collector.
package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apimeister/unpatched-server/internal/domain"
)

// Frame keys: text frames are "key:payload".
const (
	frameKeyHost   = "host"
	frameKeyScript = "script"
)

// splitFrame divides a raw text frame into its key and JSON payload.
// ok is false if there is no colon separator.
func splitFrame(raw string) (key, payload string, ok bool) {
	key, payload, found := strings.Cut(raw, ":")
	return key, payload, found
}

// hostPayload is the agent's self-description on a "host:" frame. IP is
// intentionally not modeled here; the server records the socket's real
// peer address, never a value the agent supplies.
type hostPayload struct {
	Alias      string   `json:"alias"`
	Attributes []string `json:"attributes"`
}

func decodeHostFrame(payload string) (*hostPayload, error) {
	var h hostPayload
	if err := json.Unmarshal([]byte(payload), &h); err != nil {
		return nil, fmt.Errorf("decode host frame: %w", err)
	}
	return &h, nil
}

// scriptBody is the wire shape of the script carried in a "script:" frame,
// in both directions: on dispatch it is the full script; on reply the
// agent echoes it back with ScriptContent replaced by captured output.
type scriptBody struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name,omitempty"`
	Version       string   `json:"version,omitempty"`
	OutputRegex   string   `json:"output_regex,omitempty"`
	Labels        []string `json:"labels,omitempty"`
	ScriptContent string   `json:"script_content"`
}

// scriptFrame is the {id, script} envelope of a "script:" frame.
type scriptFrame struct {
	ID     string     `json:"id"`
	Script scriptBody `json:"script"`
}

func decodeScriptFrame(payload string) (*scriptFrame, error) {
	var f scriptFrame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return nil, fmt.Errorf("decode script frame: %w", err)
	}
	return &f, nil
}

// encodeDispatchFrame builds the "script:<json>" text the dispatcher
// sends to hand a claimed execution's script to the agent.
func encodeDispatchFrame(executionID string, script *domain.Script) (string, error) {
	body := scriptBody{
		ID:            script.ID,
		Name:          script.Name,
		Version:       script.Version,
		OutputRegex:   script.OutputRegex,
		Labels:        script.Labels,
		ScriptContent: script.ScriptContent,
	}
	payload, err := json.Marshal(scriptFrame{ID: executionID, Script: body})
	if err != nil {
		return "", fmt.Errorf("encode dispatch frame: %w", err)
	}
	return frameKeyScript + ":" + string(payload), nil
}
