package imagenorm

import "bytes"

var (
	pngIDAT = []byte("IDAT")
	pngAcTL = []byte("acTL")
)

// isAnimatedPNG reports whether an acTL chunk appears before the first IDAT chunk
func isAnimatedPNG(b []byte) bool {
	actl := bytes.Index(b, pngAcTL)
	if actl < 0 {
		return false
	}
	idat := bytes.Index(b, pngIDAT)
	return idat < 0 || actl < idat
}

// isAnimatedWebp checks the animation flag of the extended (VP8X) header
func isAnimatedWebp(b []byte) bool {
	if len(b) < 21 || !bytes.Equal(b[12:16], []byte("VP8X")) {
		return false
	}
	return (b[20]>>1)&1 > 0
}

// webpCanvasSize reads the canvas size from the VP8X header
func webpCanvasSize(b []byte) (width, height int, ok bool) {
	if len(b) < 30 || !bytes.Equal(b[12:16], []byte("VP8X")) {
		return 0, 0, false
	}
	width = (int(b[24]) | int(b[25])<<8 | int(b[26])<<16) + 1
	height = (int(b[27]) | int(b[28])<<8 | int(b[29])<<16) + 1
	return width, height, true
}
