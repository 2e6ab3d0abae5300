// Package orchestrator drives the hide and unhide pipelines end to end:
// archive, optional encryption, split, and cover writes for hide; cover
// reads, join, optional decryption, and extraction for unhide. Each phase
// registers its temp files with a cleanup stack so a failure partway
// through removes everything created so far.
package orchestrator

import (
	"os"

	"pecover/internal/archive"
	"pecover/internal/cover"
	"pecover/internal/crypto"
	"pecover/internal/errs"
	"pecover/internal/log"
	"pecover/internal/split"
	"pecover/internal/tempname"
)

// cleanupStack tracks temp files created during a pipeline run so they can
// be removed, in reverse order, if a later phase fails.
type cleanupStack struct {
	paths []string
}

func (s *cleanupStack) push(path string) {
	s.paths = append(s.paths, path)
}

func (s *cleanupStack) run() {
	for i := len(s.paths) - 1; i >= 0; i-- {
		if err := os.Remove(s.paths[i]); err != nil && !os.IsNotExist(err) {
			log.Warn("cleanup: failed to remove temp file", log.String("path", s.paths[i]), log.Err(err))
		}
	}
}

// HideRequest describes one hide invocation.
type HideRequest struct {
	InputPaths []string
	CoverPaths []string
	Password   string // empty means no encryption
}

// Hide bundles InputPaths into an archive, optionally encrypts it, splits
// the result across CoverPaths in the order supplied, and appends each
// chunk to its cover file. All temp files are removed, whether Hide
// succeeds or fails.
func Hide(req HideRequest) (err error) {
	if len(req.CoverPaths) == 0 {
		return errs.ErrTooManyCovers
	}
	if len(req.CoverPaths) > split.MaxCovers {
		return errs.ErrTooManyCovers
	}

	cleanup := &cleanupStack{}
	defer cleanup.run()

	log.Info("hide: archiving inputs", log.Int("file_count", len(req.InputPaths)))
	archivePath, err := tempname.New()
	if err != nil {
		return err
	}
	cleanup.push(archivePath)
	if err := archive.Create(archivePath, req.InputPaths); err != nil {
		return err
	}

	blobPath := archivePath
	encrypted := req.Password != ""
	if encrypted {
		archiveInfo, err := os.Stat(archivePath)
		if err != nil {
			return errs.NewArchiveError("stat", archivePath, err)
		}
		log.Info("hide: encrypting archive",
			log.Int64("plaintext_bytes", archiveInfo.Size()),
			log.Int64("ciphertext_bytes", crypto.EncryptedSize(archiveInfo.Size())))
		encPath, err := tempname.New()
		if err != nil {
			return err
		}
		cleanup.push(encPath)
		if err := crypto.EncryptFile(archivePath, encPath, req.Password); err != nil {
			return errs.EncryptFailed(err)
		}
		os.Remove(archivePath)
		blobPath = encPath
	}

	blob, err := os.ReadFile(blobPath)
	if err != nil {
		return errs.NewCoverError("read", blobPath, err)
	}

	chunks, err := split.Split(blob, len(req.CoverPaths), encrypted)
	if err != nil {
		return err
	}

	log.Info("hide: writing chunks into cover files", log.Int("cover_count", len(req.CoverPaths)))
	for i, coverPath := range req.CoverPaths {
		if err := appendChunk(coverPath, chunks[i]); err != nil {
			return err
		}
	}

	return nil
}

func appendChunk(coverPath string, chunk split.Chunk) error {
	f, err := os.OpenFile(coverPath, os.O_RDWR, 0)
	if err != nil {
		return errs.NewCoverError("append", coverPath, err)
	}
	defer f.Close()

	c := cover.NewPECover(coverPath, f)
	return c.Append(chunk.Data, chunk.Meta)
}

// UnhideRequest describes one unhide invocation.
type UnhideRequest struct {
	CoverPaths []string
	OutputDir  string
	Password   string // ignored unless the payload is encrypted
}

// Unhide validates CoverPaths as a coherent cover set, reassembles the
// original blob, optionally decrypts it, and extracts the resulting
// archive into OutputDir.
func Unhide(req UnhideRequest) (err error) {
	cleanup := &cleanupStack{}
	defer cleanup.run()

	log.Info("unhide: joining cover files", log.Int("cover_count", len(req.CoverPaths)))
	joinedPath, err := tempname.New()
	if err != nil {
		return err
	}
	cleanup.push(joinedPath)
	encrypted, err := split.Join(req.CoverPaths, joinedPath)
	if err != nil {
		return err
	}

	blobPath := joinedPath
	if encrypted {
		if req.Password == "" {
			return errs.ErrEncryptedPayloadNoPassword
		}
		log.Info("unhide: decrypting payload")
		decPath, err := tempname.New()
		if err != nil {
			return err
		}
		cleanup.push(decPath)
		if err := crypto.DecryptFile(joinedPath, decPath, req.Password); err != nil {
			return errs.DecryptFailed(err)
		}
		os.Remove(joinedPath)
		blobPath = decPath
	}

	log.Info("unhide: extracting archive", log.String("output_dir", req.OutputDir))
	return archive.Extract(blobPath, req.OutputDir)
}
