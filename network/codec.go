// network/codec.go
package network

import (
	"encoding/json"

	"github.com/wfunc/discarena/state"
)

// EncodeTick serializes a per-team view of the world snapshot for the
// instance_tick event. The match treats the codec as opaque.
func EncodeTick(s *state.GameState) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeTick 客户端与测试用
func DecodeTick(data []byte) (*state.GameState, error) {
	var s state.GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
