package types

// BlockInfo summarises a sealed block.
type BlockInfo struct {
	Height    uint64   `json:"height"`
	StateRoot [32]byte `json:"stateRoot"`
	TxCount   int      `json:"txCount"`
	Events    []*Event `json:"events,omitempty"`
}
