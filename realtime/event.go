package realtime

import (
	"sort"

	"github.com/comalice/navigatorx/internal/extensibility"
)

// IntentWithMeta adds sequencing metadata for deterministic ordering
type IntentWithMeta struct {
	Intent      extensibility.Intent
	SequenceNum uint64
	Priority    int
}

// sortIntents orders intents deterministically
func sortIntents(intents []IntentWithMeta) {
	// Stable sort preserves insertion order for equal priorities
	sort.SliceStable(intents, func(i, j int) bool {
		if intents[i].Priority != intents[j].Priority {
			return intents[i].Priority > intents[j].Priority
		}
		return intents[i].SequenceNum < intents[j].SequenceNum
	})
}
