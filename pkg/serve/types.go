package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/guardian/pkg/scanner"
)

// Request types.
const (
	TypeMatchWord  = "match_word"
	TypeMatchWords = "match_words"
	TypeMatchFile  = "match_file"
	TypeMatchBatch = "match_batch"
	TypeCategories = "categories"
	TypeClose      = "close"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MatchWordPayload is the payload for "match_word" requests
type MatchWordPayload struct {
	Word string `json:"word"`
}

// MatchWordsPayload is the payload for "match_words" requests
type MatchWordsPayload struct {
	Words []string `json:"words"`
}

// MatchFilePayload is the payload for "match_file" requests
type MatchFilePayload struct {
	Path string `json:"path"`
}

// MatchBatchPayload is the payload for "match_batch" requests
type MatchBatchPayload struct {
	Items []scanner.Item `json:"items"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" or the request type
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version    string   `json:"version"`
	Categories []string `json:"categories"`
	ScanID     string   `json:"scan_id,omitempty"`
}
