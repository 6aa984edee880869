package export

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/stagegraph/pkg/renderer"
)

// WriteJSON writes snap as indented JSON.
func WriteJSON(w io.Writer, snap renderer.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
