package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// World routing/state.
	ErrWorldBusy     = "E_WORLD_BUSY"
	ErrChunkNotReady = "E_CHUNK_NOT_READY"

	// Edits.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownBlock  = "E_UNKNOWN_BLOCK"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrWorldBusy:       {},
	ErrChunkNotReady:   {},
	ErrBadRequest:      {},
	ErrUnknownBlock:    {},
	ErrInvalidTarget:   {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
