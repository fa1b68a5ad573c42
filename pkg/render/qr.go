package render

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"

	appErrors "github.com/unexca/student-docs-api/pkg/errors"
)

// EncodeQR renders payload as a size x size QR code on an opaque white
// background using medium error correction.
func EncodeQR(payload string, size int) (image.Image, error) {
	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, appErrors.Encode("qr code", err)
	}
	img := q.Image(size)
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		return imaging.Resize(img, size, size, imaging.NearestNeighbor), nil
	}
	return img, nil
}
