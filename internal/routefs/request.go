package routefs

import (
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"
)

// Request is one decoded operation request from the external host.
// Binary payloads travel base64-encoded in the "buf" field of the wire
// envelope; inside the engine they are opaque bytes.
type Request struct {
	ID     int64  // caller-assigned, monotonically increasing
	Op     string // operation name, e.g. "getattr"
	Path   string // target path
	Offset int64  // read/write offset
	Size   int64  // read size, or new length for truncate
	FH     uint64 // open-handle id for read/write/release
	Buf    []byte // decoded binary payload, nil if absent

	// Bindings holds the variable captures from route resolution. The
	// dispatcher fills it in before invoking a handler.
	Bindings Bindings
}

// DecodeRequest parses a wire envelope. On failure it still returns
// whatever id and op it could extract, so the caller can address the
// error response to the right request.
func DecodeRequest(raw []byte) (*Request, error) {
	req := &Request{}
	if !gjson.ValidBytes(raw) {
		return req, fmt.Errorf("request is not valid JSON")
	}
	req.ID = gjson.GetBytes(raw, "id").Int()
	req.Op = gjson.GetBytes(raw, "op").String()
	if req.Op == "" {
		return req, fmt.Errorf("request %d: missing op", req.ID)
	}
	req.Path = gjson.GetBytes(raw, "path").String()
	if req.Path == "" {
		return req, fmt.Errorf("request %d: missing path", req.ID)
	}
	req.Offset = gjson.GetBytes(raw, "offset").Int()
	req.Size = gjson.GetBytes(raw, "size").Int()
	req.FH = gjson.GetBytes(raw, "fh").Uint()

	if buf := gjson.GetBytes(raw, "buf"); buf.Exists() {
		data, err := base64.StdEncoding.DecodeString(buf.String())
		if err != nil {
			return req, fmt.Errorf("request %d: decoding buf: %w", req.ID, err)
		}
		req.Buf = data
	}
	return req, nil
}
