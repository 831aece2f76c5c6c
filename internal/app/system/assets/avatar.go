package assets

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decoder
)

// AvatarSize is the edge length of stored avatars.
const AvatarSize = 256

// NormalizeAvatar decodes an uploaded image, honours EXIF orientation,
// center-crops it to a square and re-encodes it as JPEG.
func (m *Manager) NormalizeAvatar(r io.Reader) ([]byte, error) {
	data, err := m.readLimited(r)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUnsupportedType
	}
	thumb := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
