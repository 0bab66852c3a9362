package notionpub

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/notionpub/views"
)

const (
	defaultImageWidth = 1200
	jpegQuality       = 80
	maxSourceSize     = 20 << 20 // 20MB
	maxSourcePixels   = 40_000_000
	imageCacheControl = "public, max-age=1800"

	// svgSecurityPolicy keeps scripts in proxied SVGs from running.
	svgSecurityPolicy = "default-src 'self'; script-src 'none'; sandbox;"
)

var errImageTooLarge = errors.New("image dimensions too large")

// processImage decodes an image from src, resizes it to at most width pixels
// wide, and encodes it as JPEG, or PNG when it has transparency.
func processImage(src io.ReadSeeker, width int) (Image, []byte, error) {
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxSourcePixels/cfg.Height {
		return Image{}, nil, fmt.Errorf("%w: %dx%d", errImageTooLarge, cfg.Width, cfg.Height)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return Image{}, nil, err
	}
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > width {
		newH := h * width / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = width, newH
	}

	var buf bytes.Buffer
	contentType := "image/jpeg"
	if opaque(img) {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
		}
	} else {
		contentType = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return Image{}, nil, fmt.Errorf("encode png: %w", err)
		}
	}
	return Image{ContentType: contentType, Width: w, Height: h, Size: buf.Len()}, buf.Bytes(), nil
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// imageKey names the cached rendition of src at width.
func imageKey(src string, width int) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:12]) + "-" + strconv.Itoa(width)
}

func imageExt(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/svg+xml":
		return ".svg"
	}
	return ".jpg"
}

// handleImage serves a resized copy of a remote image from an allowed host.
// Renditions are kept on disk and described in the images table.
func (a *App) handleImage(c echo.Context) error {
	src := c.QueryParam("url")
	if !views.ProxyableImage(src) {
		return c.String(http.StatusBadRequest, "url is not an allowed image")
	}
	width := defaultImageWidth
	if w, err := strconv.Atoi(c.QueryParam("w")); err == nil && w > 0 {
		width = views.SnapImageWidth(w)
	}
	key := imageKey(src, width)

	if img, err := a.Store.GetImage(key); err == nil {
		path := filepath.Join(a.Config.ImageCacheDir, img.Filename)
		if data, err := os.ReadFile(path); err == nil {
			return a.writeImage(c, img.ContentType, data)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, src, nil)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid url")
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetch image").SetInternal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return echo.NewHTTPError(http.StatusBadGateway, "fetch image: "+resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "read image").SetInternal(err)
	}
	if len(body) > maxSourceSize {
		return c.String(http.StatusBadRequest, "image too large")
	}

	var img Image
	var data []byte
	if isSVG(resp.Header.Get(echo.HeaderContentType), src) {
		img, data = Image{ContentType: "image/svg+xml", Size: len(body)}, body
	} else {
		img, data, err = processImage(bytes.NewReader(body), width)
		if errors.Is(err, errImageTooLarge) {
			return c.String(http.StatusBadRequest, "image too large")
		}
		if err != nil {
			return c.String(http.StatusUnsupportedMediaType, "unsupported image")
		}
	}
	img.Key = key
	img.Filename = key + imageExt(img.ContentType)
	img.FetchedAt = a.now()

	if err := a.cacheImage(img, data); err != nil {
		c.Logger().Errorf("image cache: %v", err)
	}
	return a.writeImage(c, img.ContentType, data)
}

func (a *App) cacheImage(img Image, data []byte) error {
	if err := os.MkdirAll(a.Config.ImageCacheDir, 0o755); err != nil {
		return fmt.Errorf("create image cache dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.Config.ImageCacheDir, img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return a.Store.SaveImage(img)
}

func (a *App) writeImage(c echo.Context, contentType string, data []byte) error {
	h := c.Response().Header()
	h.Set("Cache-Control", imageCacheControl)
	if contentType == "image/svg+xml" {
		h.Set(echo.HeaderContentSecurityPolicy, svgSecurityPolicy)
	}
	return c.Blob(http.StatusOK, contentType, data)
}

func isSVG(contentType, src string) bool {
	if strings.HasPrefix(contentType, "image/svg+xml") {
		return true
	}
	path := src
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(strings.ToLower(path), ".svg")
}

// purgeImages removes every cached rendition. It returns how many were removed.
func (a *App) purgeImages() (int, error) {
	images, err := a.Store.DeleteImages()
	if err != nil {
		return 0, err
	}
	for _, img := range images {
		_ = os.Remove(filepath.Join(a.Config.ImageCacheDir, img.Filename))
	}
	return len(images), nil
}
