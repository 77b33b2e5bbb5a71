package video

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Decode decodes a JPEG frame into a BGR Mat. The caller owns the Mat and
// must Close it.
func Decode(jpeg []byte) (gocv.Mat, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode frame: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("decode frame: empty image")
	}
	return img, nil
}

// ResizeToWidth scales the image to the target width, preserving the aspect
// ratio. Returns a new Mat; the caller must Close it.
func ResizeToWidth(src gocv.Mat, width int) gocv.Mat {
	dst := gocv.NewMat()
	if src.Cols() == 0 || width <= 0 {
		return dst
	}

	scale := float64(width) / float64(src.Cols())
	height := int(float64(src.Rows()) * scale)
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return dst
}

// Encode re-encodes a Mat as JPEG at the given quality (1-100).
func Encode(img gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img,
		[]int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
