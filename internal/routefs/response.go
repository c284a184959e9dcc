package routefs

import (
	"encoding/base64"

	"github.com/tidwall/sjson"
)

// File type bits for Attr.Mode, combined with permission bits the way
// the kernel's stat(2) encodes them.
const (
	ModeRegular uint32 = 0o100000
	ModeDir     uint32 = 0o040000
	ModeSymlink uint32 = 0o120000
)

// Attr is the file metadata returned by getattr.
type Attr struct {
	Mode  uint32 // file type | permission bits
	Nlink uint32
	Size  int64 // byte length of the current contents
}

// Response carries the success fields of one operation. Only the
// fields the operation produced are set; the wire envelope contains
// only those. A response never carries both success fields and an
// error - failures travel as an Errno through the handler's error
// return instead.
type Response struct {
	Attr    *Attr    // getattr
	FH      *uint64  // open
	Buf     []byte   // read (may be empty, never omitted for read)
	Count   *int     // write: bytes written
	Entries []string // readdir
	Target  string   // readlink
}

// EncodeResponse frames a success response for the wire, attaching the
// original request id and operation name.
func EncodeResponse(id int64, op string, resp *Response) []byte {
	out := frame(id, op)
	if resp == nil {
		return out
	}
	if resp.Attr != nil {
		out, _ = sjson.SetBytes(out, "st_mode", resp.Attr.Mode)
		out, _ = sjson.SetBytes(out, "st_nlink", resp.Attr.Nlink)
		out, _ = sjson.SetBytes(out, "st_size", resp.Attr.Size)
	}
	if resp.FH != nil {
		out, _ = sjson.SetBytes(out, "fh", *resp.FH)
	}
	if resp.Buf != nil {
		out, _ = sjson.SetBytes(out, "buf", base64.StdEncoding.EncodeToString(resp.Buf))
	}
	if resp.Count != nil {
		out, _ = sjson.SetBytes(out, "size", *resp.Count)
	}
	if resp.Entries != nil {
		out, _ = sjson.SetBytes(out, "entries", resp.Entries)
	}
	if resp.Target != "" {
		out, _ = sjson.SetBytes(out, "target", resp.Target)
	}
	return out
}

// EncodeError frames a failure response carrying the errno symbol.
func EncodeError(id int64, op string, code Errno) []byte {
	out := frame(id, op)
	out, _ = sjson.SetBytes(out, "error", code.Symbol())
	return out
}

func frame(id int64, op string) []byte {
	out := []byte(`{}`)
	out, _ = sjson.SetBytes(out, "id", id)
	out, _ = sjson.SetBytes(out, "op", op)
	return out
}
