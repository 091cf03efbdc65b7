// Package digest computes content hashes of encoded images. Equal digests
// mean byte-identical encodings and let a comparison finish without decoding.
package digest

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"io"

	"screenshot-assertion/internal/pixel"

	"golang.org/x/xerrors"
)

type Digest [md5.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func Of(data []byte) Digest {
	return md5.Sum(data)
}

func OfReader(r io.Reader) (Digest, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, xerrors.Errorf("failed to hash content: %w", err)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// OfBuffer hashes the PNG encoding of b. The encoder is deterministic, so
// equal buffers always produce equal digests. PNG cannot hold a zero-size
// image, so every empty buffer hashes like empty content.
func OfBuffer(b *pixel.Buffer) (Digest, error) {
	if b.Empty() {
		return Of(nil), nil
	}
	var buffer bytes.Buffer
	if err := b.EncodePNG(&buffer); err != nil {
		return Digest{}, xerrors.Errorf("failed to encode buffer: %w", err)
	}
	return Of(buffer.Bytes()), nil
}
