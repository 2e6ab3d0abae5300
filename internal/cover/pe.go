package cover

import (
	"errors"
	"io"
	"os"

	"pecover/internal/errs"
	"pecover/internal/trailer"
	"pecover/internal/util"
)

var errNotParsed = errors.New("Parse must succeed before Read is called")

// PECover appends a payload chunk and its trailer to the tail of a PE/MZ
// executable opened for read+write.
type PECover struct {
	path string
	f    *os.File
}

// NewPECover wraps an already-open read/write file handle for path.
func NewPECover(path string, f *os.File) *PECover {
	return &PECover{path: path, f: f}
}

// Append seeks to the end of the cover, verifies the resulting size would
// not exceed the PE loader's 2 GiB ceiling, then writes payload followed by
// its encoded trailer.
func (c *PECover) Append(payload []byte, meta trailer.Meta) error {
	length, err := c.f.Seek(0, io.SeekEnd)
	if err != nil {
		return errs.NewCoverError("append", c.path, err)
	}

	if length+int64(len(payload))+trailer.Size > maxPESize {
		return errs.CoverTooLarge(c.path)
	}

	if _, err := c.f.Write(payload); err != nil {
		return errs.NewCoverError("append", c.path, err)
	}

	enc := trailer.Encode(meta)
	if _, err := c.f.Write(enc[:]); err != nil {
		return errs.NewCoverError("append", c.path, err)
	}

	return nil
}

// PEUncover reads the trailer and payload chunk from a previously-hidden
// PE/MZ cover opened for reading.
type PEUncover struct {
	path string
	f    *os.File
	meta trailer.Meta
	have bool
}

// NewPEUncover wraps an already-open read-capable file handle for path.
func NewPEUncover(path string, f *os.File) *PEUncover {
	return &PEUncover{path: path, f: f}
}

// Parse seeks to the trailer position, decodes it, and stores the result
// for later Read/Meta calls. Every failure mode - short file, I/O error, a
// trailer that fails its semantic checks, or a payload_size larger than the
// bytes preceding the trailer - surfaces uniformly as errs.NotACover, so a
// caller cannot distinguish why a given file has no hidden payload.
func (u *PEUncover) Parse() error {
	trailerPos, err := u.f.Seek(-trailer.Size, io.SeekEnd)
	if err != nil {
		return errs.NotACover(u.path)
	}

	var raw [trailer.Size]byte
	if _, err := io.ReadFull(u.f, raw[:]); err != nil {
		return errs.NotACover(u.path)
	}

	meta, err := trailer.Decode(raw)
	if err != nil || int64(meta.PayloadSize) > trailerPos {
		return errs.NotACover(u.path)
	}

	u.meta = meta
	u.have = true
	return nil
}

// Meta returns the trailer parsed by Parse, and whether Parse has been
// called successfully.
func (u *PEUncover) Meta() (trailer.Meta, bool) {
	return u.meta, u.have
}

// Read streams exactly Meta().PayloadSize bytes - the chunk this cover
// carries - into dest. Parse must have succeeded first.
func (u *PEUncover) Read(dest io.Writer) error {
	if !u.have {
		return errs.NewCoverError("read", u.path, errNotParsed)
	}

	if _, err := u.f.Seek(-trailer.Size-int64(u.meta.PayloadSize), io.SeekEnd); err != nil {
		return errs.NewCoverError("read", u.path, err)
	}

	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)

	if _, err := io.CopyBuffer(dest, io.LimitReader(u.f, int64(u.meta.PayloadSize)), buf); err != nil {
		return errs.NewCoverError("read", u.path, err)
	}
	return nil
}
