package imagenorm

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

const CName = "pack.imagenorm"

var log = logger.NewNamed(CName)

const (
	ThumbnailSize = 200
	ImageSize     = 150
)

var (
	ErrUnsupported       = errors.New("unsupported image format")
	ErrAnimationTooLarge = errors.New("animated image is too large")
	ErrTooManyPixels     = errors.New("image resolution is too large")
	errUnknownCanvasSize = errors.New("unable to read image dimensions")
)

func New() Normalizer {
	return new(normalizer)
}

type configGetter interface {
	GetImageNorm() Config
}

type Config struct {
	MaxAnimatedSide  int   `yaml:"maxAnimatedSide"`
	MaxAnimatedBytes int64 `yaml:"maxAnimatedBytes"`
	MaxPixels        int   `yaml:"maxPixels"`
}

func (c Config) withDefaults() Config {
	if c.MaxAnimatedSide <= 0 {
		c.MaxAnimatedSide = 1000
	}
	if c.MaxAnimatedBytes <= 0 {
		c.MaxAnimatedBytes = 5 << 20
	}
	if c.MaxPixels <= 0 {
		c.MaxPixels = 40_000_000
	}
	return c
}

type Image struct {
	Data      []byte
	MediaType string
	Animated  bool
}

// Normalizer bounds images to a target box before they are persisted.
// Animated images keep their frames and are only size checked.
type Normalizer interface {
	Normalize(data []byte, width, height int) (Image, error)
	app.Component
}

type normalizer struct {
	conf Config
}

func (n *normalizer) Init(a *app.App) (err error) {
	n.conf = a.MustComponent("config").(configGetter).GetImageNorm().withDefaults()
	return
}

func (n *normalizer) Name() (name string) {
	return CName
}

func (n *normalizer) Normalize(data []byte, width, height int) (Image, error) {
	detected := mimetype.Detect(data)
	switch {
	case detected.Is("image/gif"):
		return n.passAnimated(data, "image/gif")
	case detected.Is("image/png"), detected.Is("image/vnd.mozilla.apng"):
		if isAnimatedPNG(data) {
			return n.passAnimated(data, "image/png")
		}
		return n.resize(data, width, height, imaging.PNG)
	case detected.Is("image/webp"):
		if isAnimatedWebp(data) {
			return n.passAnimated(data, "image/webp")
		}
		return n.resize(data, width, height, imaging.PNG)
	case detected.Is("image/jpeg"):
		return n.resize(data, width, height, imaging.JPEG)
	}
	return Image{}, fmt.Errorf("%w: %s", ErrUnsupported, detected.String())
}

func (n *normalizer) passAnimated(data []byte, mediaType string) (Image, error) {
	if int64(len(data)) > n.conf.MaxAnimatedBytes {
		return Image{}, fmt.Errorf("%w: %s exceeds %s", ErrAnimationTooLarge,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(n.conf.MaxAnimatedBytes)))
	}
	w, h, err := dimensions(data, mediaType)
	if err != nil {
		return Image{}, err
	}
	if w > n.conf.MaxAnimatedSide || h > n.conf.MaxAnimatedSide {
		return Image{}, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrAnimationTooLarge, w, h, n.conf.MaxAnimatedSide, n.conf.MaxAnimatedSide)
	}
	return Image{Data: data, MediaType: mediaType, Animated: true}, nil
}

func (n *normalizer) resize(data []byte, width, height int, format imaging.Format) (Image, error) {
	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if conf.Width*conf.Height > n.conf.MaxPixels {
		return Image{}, ErrTooManyPixels
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	bounds := src.Bounds()
	if bounds.Dx() > width || bounds.Dy() > height {
		src = imaging.Fit(src, width, height, imaging.Lanczos)
	}

	buf := &bytes.Buffer{}
	opts := []imaging.EncodeOption{}
	mediaType := "image/png"
	if format == imaging.JPEG {
		opts = append(opts, imaging.JPEGQuality(90))
		mediaType = "image/jpeg"
	}
	if err = imaging.Encode(buf, src, format, opts...); err != nil {
		return Image{}, fmt.Errorf("encode image: %w", err)
	}
	log.Debug("image normalized",
		zap.Int("srcWidth", bounds.Dx()), zap.Int("srcHeight", bounds.Dy()),
		zap.Int("width", src.Bounds().Dx()), zap.Int("height", src.Bounds().Dy()))
	return Image{Data: buf.Bytes(), MediaType: mediaType}, nil
}

func dimensions(data []byte, mediaType string) (width, height int, err error) {
	if mediaType == "image/webp" {
		if w, h, ok := webpCanvasSize(data); ok {
			return w, h, nil
		}
		return 0, 0, errUnknownCanvasSize
	}
	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return conf.Width, conf.Height, nil
}
