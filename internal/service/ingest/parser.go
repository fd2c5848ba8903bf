package ingest

import (
	"strconv"
	"strings"

	"github.com/seu-repo/upark/internal/domain"
)

// FullLotMarker is the literal payload the sensor board sends when every bay
// reports a vehicle.
const FullLotMarker = "FULL"

// ParseSweep decodes one sensor sweep: either the full-lot marker or a
// comma-separated list of currently free slot numbers. Unparseable tokens
// are discarded rather than failing the whole message; only an empty payload
// is malformed. The returned set holds the slot numbers reported free.
func ParseSweep(payload string) (map[int]bool, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, domain.ErrMalformedSignal("empty sensor payload")
	}

	free := make(map[int]bool)
	if trimmed == FullLotMarker {
		return free, nil
	}

	for _, token := range strings.Split(trimmed, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil || n <= 0 {
			continue
		}
		free[n] = true
	}

	return free, nil
}
