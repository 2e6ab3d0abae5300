// Package cover implements the PE/MZ cover adapter: appending a payload
// chunk and its trailer to the tail of an existing executable, and reading
// it back out.
package cover

import (
	"io"

	"pecover/internal/trailer"
)

// maxPESize is the PE loader's 2 GiB ceiling: the Windows loader will not
// map an image larger than a signed 32-bit byte count.
const maxPESize = 1<<31 - 1

// Cover hides a payload chunk, along with its metadata, inside the tail of
// a cover file. A future non-PE adapter would implement the same operation
// with different placement rules.
type Cover interface {
	Append(payload []byte, meta trailer.Meta) error
}

// Uncover locates and reads back a payload chunk previously hidden by a
// Cover implementation. Parse must succeed before Read or Meta are called.
type Uncover interface {
	Parse() error
	Read(dest io.Writer) error
	Meta() (trailer.Meta, bool)
}
