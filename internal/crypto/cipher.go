package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
	"os"

	"pecover/internal/util"
)

// EncryptedSize returns the size an AES-256-CBC(PKCS7) ciphertext blob will
// occupy on disk for a plaintext of length n, including the leading
// salt+IV. PKCS#7 always adds at least one full block of padding, even when
// n is already a multiple of the block size.
func EncryptedSize(n int64) int64 {
	return n + (aes.BlockSize - n%aes.BlockSize) + int64(SaltSize+IVSize)
}

// EncryptFile reads the plaintext at srcPath, encrypts it with a key
// derived from pass via Argon2id, and writes salt(16) + IV(16) + ciphertext
// to destPath. Both salt and IV are drawn fresh from crypto/rand.
func EncryptFile(srcPath, destPath, pass string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer dest.Close()

	salt, err := RandomBytes(SaltSize)
	if err != nil {
		return err
	}
	iv, err := RandomBytes(IVSize)
	if err != nil {
		return err
	}

	if _, err := dest.Write(salt); err != nil {
		return fmt.Errorf("write salt: %w", err)
	}
	if _, err := dest.Write(iv); err != nil {
		return fmt.Errorf("write iv: %w", err)
	}

	key, err := DeriveKey([]byte(pass), salt)
	if err != nil {
		return err
	}
	defer SecureZero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	mode := cipher.NewCBCEncrypter(block, iv)

	w := newCBCPKCS7Writer(dest, mode)

	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)

	if _, err := io.CopyBuffer(w, src, buf); err != nil {
		return err
	}
	return w.Close()
}

// DecryptFile reads salt(16)+IV(16)+ciphertext from srcPath, derives the key
// from pass, and writes the plaintext, with its PKCS7 padding removed, to
// destPath. The errors it returns name their cause; callers wrap them in
// errs.DecryptFailed, whose text is the same whether the password was wrong
// or the ciphertext was corrupted.
func DecryptFile(srcPath, destPath, pass string) (err error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(src, salt); err != nil {
		return errors.New("ciphertext too short to contain a salt")
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		return errors.New("ciphertext too short to contain an IV")
	}

	key, err := DeriveKey([]byte(pass), salt)
	if err != nil {
		return err
	}
	defer SecureZero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	mode := cipher.NewCBCDecrypter(block, iv)

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer func() {
		closeErr := dest.Close()
		if err == nil {
			err = closeErr
		}
	}()

	r := newCBCPKCS7Reader(src, mode)

	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)

	if _, err := io.CopyBuffer(dest, r, buf); err != nil {
		return err
	}
	return nil
}

// cbcPKCS7Writer buffers plaintext, encrypts full blocks as they arrive, and
// on Close applies PKCS#7 padding and flushes the final block(s).
type cbcPKCS7Writer struct {
	w    io.Writer
	mode cipher.BlockMode
	buf  []byte
}

func newCBCPKCS7Writer(w io.Writer, mode cipher.BlockMode) io.WriteCloser {
	return &cbcPKCS7Writer{w: w, mode: mode}
}

func (c *cbcPKCS7Writer) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)

	blockSize := c.mode.BlockSize()
	n := len(c.buf) / blockSize * blockSize
	if n == 0 {
		return len(p), nil
	}

	toEnc := c.buf[:n]
	enc := make([]byte, len(toEnc))
	c.mode.CryptBlocks(enc, toEnc)
	if _, err := c.w.Write(enc); err != nil {
		return 0, err
	}

	c.buf = c.buf[n:]
	return len(p), nil
}

func (c *cbcPKCS7Writer) Close() error {
	blockSize := c.mode.BlockSize()
	padLen := blockSize - (len(c.buf) % blockSize)
	if padLen == 0 {
		padLen = blockSize
	}
	for i := 0; i < padLen; i++ {
		c.buf = append(c.buf, byte(padLen))
	}

	enc := make([]byte, len(c.buf))
	c.mode.CryptBlocks(enc, c.buf)
	_, err := c.w.Write(enc)
	return err
}

// cbcPKCS7Reader decrypts incoming ciphertext blocks and strips PKCS#7
// padding once the underlying reader reaches EOF.
type cbcPKCS7Reader struct {
	r    io.Reader
	mode cipher.BlockMode
	buf  []byte
	out  []byte
	fin  bool
}

func newCBCPKCS7Reader(r io.Reader, mode cipher.BlockMode) io.Reader {
	return &cbcPKCS7Reader{r: r, mode: mode}
}

func (c *cbcPKCS7Reader) Read(p []byte) (int, error) {
	if len(c.out) > 0 {
		n := copy(p, c.out)
		c.out = c.out[n:]
		return n, nil
	}

	if c.fin {
		return 0, io.EOF
	}

	chunk := make([]byte, 32*1024)
	nr, err := c.r.Read(chunk)
	if err != nil && err != io.EOF {
		return 0, err
	}
	c.buf = append(c.buf, chunk[:nr]...)

	blockSize := c.mode.BlockSize()
	n := len(c.buf) / blockSize * blockSize
	if err == io.EOF {
		c.fin = true
	} else {
		// Hold back the last block until EOF: it may be the padded final
		// block, which can only be unpadded once no more data follows.
		n = (len(c.buf) - 1) / blockSize * blockSize
	}
	if n == 0 {
		if c.fin {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, nil
	}

	dec := make([]byte, n)
	c.mode.CryptBlocks(dec, c.buf[:n])
	c.buf = c.buf[n:]

	if c.fin {
		if len(dec) < blockSize {
			return 0, io.ErrUnexpectedEOF
		}
		padLen := int(dec[len(dec)-1])
		if padLen == 0 || padLen > blockSize {
			return 0, errors.New("invalid padding")
		}
		for i := 0; i < padLen; i++ {
			if dec[len(dec)-1-i] != byte(padLen) {
				return 0, errors.New("invalid padding")
			}
		}
		dec = dec[:len(dec)-padLen]
	}

	nw := copy(p, dec)
	if nw < len(dec) {
		c.out = dec[nw:]
	}
	if c.fin && len(dec) == 0 && len(c.out) == 0 {
		return 0, io.EOF
	}
	return nw, nil
}
