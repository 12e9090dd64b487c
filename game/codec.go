package game

import (
	"encoding/json"
	"sync"
)

// Decoder rebuilds a concrete state from its serialized payload.
type Decoder func(data []byte) (State, error)

var (
	decoderMu sync.RWMutex
	decoders  = make(map[string]Decoder)
)

// RegisterDecoder wires a game name to its state decoder. Engines call
// this from init alongside their registry registration.
func RegisterDecoder(name string, d Decoder) {
	decoderMu.Lock()
	defer decoderMu.Unlock()
	if _, dup := decoders[name]; dup {
		panic("game: duplicate decoder for " + name)
	}
	decoders[name] = d
}

// envelope wraps a serialized state with the game name needed to pick
// the decoder on the way back in.
type envelope struct {
	Game    string          `json:"game"`
	Payload json.RawMessage `json:"payload"`
}

// Serialize renders a state as a self-describing JSON blob that
// Deserialize can rebuild.
func Serialize(s State) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, NewError(CodeEngineError, "marshal %s state: %v", s.Game(), err)
	}
	blob, err := json.Marshal(envelope{Game: s.Game(), Payload: payload})
	if err != nil {
		return nil, NewError(CodeEngineError, "marshal envelope: %v", err)
	}
	return blob, nil
}

// Deserialize rebuilds the state inside a Serialize blob.
func Deserialize(blob []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, NewError(CodeInvalidGameState, "malformed state blob: %v", err)
	}
	decoderMu.RLock()
	d, ok := decoders[env.Game]
	decoderMu.RUnlock()
	if !ok {
		return nil, NewError(CodeInvalidGameState, "no decoder registered for game %q", env.Game)
	}
	return d(env.Payload)
}
