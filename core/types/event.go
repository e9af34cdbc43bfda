package types

// Event is the canonical payload emitted for a settlement state change. The
// attribute map holds stringified values so downstream consumers (indexers,
// RPC subscribers) never need the module's Go types to decode it.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
