package pathgen

import (
	"encoding/json"
	"hash/fnv"

	"github.com/optionchain/simulator/internal/models"
)

// seed derives a deterministic int64 PRNG seed from a session's id and
// parameters, per spec §4.5/§9: no global mutable PRNG state, and identical
// (session.id, parameters) must reproduce identical paths across processes.
func seed(sessionID string, params models.SimulationParameters) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{0}) // separator so id/digest can't collide across a boundary shift

	digest, err := json.Marshal(params)
	if err != nil {
		// Parameters are always JSON-marshalable value types; this would
		// only fail on a programming error in SimulationParameters itself.
		panic(err)
	}
	_, _ = h.Write(digest)

	return int64(h.Sum64() & 0x7fffffffffffffff) // #nosec G115 -- masked to stay within int64 range
}
