// Package split divides an encoded blob into contiguous chunks for the
// Cover adapter to write across multiple cover files, and reassembles a
// blob back out of a validated set of covers.
package split

import (
	"errors"
	"os"
	"sort"

	"pecover/internal/cover"
	"pecover/internal/errs"
	"pecover/internal/trailer"
)

// MaxCovers is the largest cover-set size the trailer's 15-bit total_parts
// field can represent.
const MaxCovers = trailer.MaxParts

// Chunk pairs a contiguous slice of a blob with the trailer metadata a Cover
// adapter attaches to the cover file that receives it.
type Chunk struct {
	Data []byte
	Meta trailer.Meta
}

// Split divides blob into k contiguous chunks. Chunks 1..k-1 each get
// len(blob)/k bytes; the last chunk absorbs the remainder, so concatenating
// the chunks in order reproduces blob exactly.
func Split(blob []byte, k int, encrypted bool) ([]Chunk, error) {
	if k < 1 || k > MaxCovers {
		return nil, errs.ErrTooManyCovers
	}

	l := len(blob)
	base := l / k
	rem := l % k

	chunks := make([]Chunk, k)
	offset := 0
	for i := 0; i < k; i++ {
		size := base
		if i == k-1 {
			size += rem
		}
		chunks[i] = Chunk{
			Data: blob[offset : offset+size],
			Meta: trailer.Meta{
				PayloadSize: uint32(size),
				Encrypted:   encrypted,
				Part:        uint16(i + 1),
				TotalParts:  uint16(k),
			},
		}
		offset += size
	}
	return chunks, nil
}

type parsedCover struct {
	path string
	f    *os.File
	u    *cover.PEUncover
	meta trailer.Meta
}

// Join validates coverPaths as a single coherent split set - each file
// parses as a cover, they agree on encrypted and total_parts, and together
// they cover every part exactly once - then writes their chunks, in part
// order, to a freshly created file at destPath. Any failure, including a
// read error partway through, removes destPath before returning. On
// success it also reports whether the joined blob is encrypted, since every
// cover has already been confirmed to agree on that flag.
func Join(coverPaths []string, destPath string) (encrypted bool, err error) {
	if len(coverPaths) > MaxCovers {
		return false, errs.ErrTooManyCovers
	}

	parsed := make([]parsedCover, 0, len(coverPaths))
	defer func() {
		for _, p := range parsed {
			p.f.Close()
		}
	}()

	for _, path := range coverPaths {
		f, openErr := os.Open(path)
		if openErr != nil {
			return false, errs.NewCoverError("parse", path, openErr)
		}
		u := cover.NewPEUncover(path, f)
		if parseErr := u.Parse(); parseErr != nil {
			return false, parseErr
		}
		meta, _ := u.Meta()
		parsed = append(parsed, parsedCover{path: path, f: f, u: u, meta: meta})
	}

	if len(parsed) == 0 {
		return false, errors.New("no cover files supplied")
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].meta.Part < parsed[j].meta.Part })

	for _, p := range parsed[1:] {
		if p.meta.Encrypted != parsed[0].meta.Encrypted {
			return false, errs.ErrInconsistentEncryption
		}
	}
	for _, p := range parsed[1:] {
		if p.meta.TotalParts != parsed[0].meta.TotalParts {
			return false, errs.ErrInconsistentTotalParts
		}
	}

	totalParts := parsed[0].meta.TotalParts
	if uint16(len(parsed)) > totalParts {
		return false, errs.ErrTooManyParts
	}
	if uint16(len(parsed)) < totalParts {
		return false, missingPartsError(totalParts, parsed)
	}

	for i, p := range parsed {
		if p.meta.Part != uint16(i+1) {
			return false, errs.ErrDuplicateParts
		}
	}

	dest, err := os.Create(destPath)
	if err != nil {
		return false, errs.NewCoverError("read", destPath, err)
	}
	defer func() {
		closeErr := dest.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(destPath)
		}
	}()

	for _, p := range parsed {
		if readErr := p.u.Read(dest); readErr != nil {
			return false, readErr
		}
	}
	return parsed[0].meta.Encrypted, nil
}

func missingPartsError(totalParts uint16, parsed []parsedCover) error {
	have := make(map[uint16]bool, len(parsed))
	for _, p := range parsed {
		have[p.meta.Part] = true
	}
	missing := make([]uint16, 0, int(totalParts)-len(parsed))
	for part := uint16(1); part <= totalParts; part++ {
		if !have[part] {
			missing = append(missing, part)
		}
	}
	return &errs.MissingPartsError{TotalParts: totalParts, Have: len(parsed), Parts: missing}
}
