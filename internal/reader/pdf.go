package reader

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // used only to derive a deterministic temp filename, not for security
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/draw"

	"github.com/raggify/raggify-go/internal/metadata"
)

// maxExtractedImageDim caps the longer side of a PDF-extracted image
// before it is handed to an embed backend — vision embedding APIs
// typically reject or silently downsample oversized scans, so this
// resizes up front rather than letting that happen opaquely downstream.
const maxExtractedImageDim = 2048

// PDFReader reads a PDF into one text Document per non-blank page plus one
// image Document per embedded image, converting CMYK images to RGB and
// downscaling oversized scans so downstream image encoders and embed
// backends never see a CMYK-encoded or oversized PNG.
type PDFReader struct {
	TempDir string // directory for extracted image temp files; os.TempDir() if empty
}

func NewPDFReader() *PDFReader { return &PDFReader{} }

func (r *PDFReader) Read(_ context.Context, path string) ([]metadata.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	f, doc, err := pdf.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("reader/pdf: open %s: %w", abs, err)
	}
	defer f.Close()

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reader/pdf: stat %s: %w", abs, err)
	}
	modAt := info.ModTime()

	var docs []metadata.Document
	totalPages := doc.NumPage()

	for pageNo := 1; pageNo <= totalPages; pageNo++ {
		page := doc.Page(pageNo)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Reader failure policy: skip the individual page, never abort the file.
			continue
		}
		if trimmed := trimSpace(text); trimmed != "" {
			docs = append(docs, metadata.Document{
				Text: trimmed,
				Hash: fmt.Sprintf("%x", md5.Sum([]byte(trimmed))), //nolint:gosec // content fingerprint, not security
				Meta: metadata.BasicMetaData{
					FilePath:      abs,
					FileType:      ".pdf",
					FileLastModAt: modAt,
					FileCreatedAt: modAt,
					PageNo:        pageNo - 1,
				},
			})
		}

		imageDocs, err := r.extractImages(page, abs, pageNo-1, modAt)
		if err != nil {
			continue
		}
		docs = append(docs, imageDocs...)
	}

	return docs, nil
}

// extractImages pulls embedded raster resources off a page. ledongthuc/pdf
// exposes page resources generically; this walks the XObject dictionary and
// decodes each image stream, converting CMYK to RGB before re-encoding to
// PNG — mirroring the source reader's fitz.Pixmap CMYK conversion.
func (r *PDFReader) extractImages(page pdf.Page, basePath string, pageNo int, now time.Time) ([]metadata.Document, error) {
	resources, err := page.Resources()
	if err != nil {
		return nil, err
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return nil, nil
	}

	var docs []metadata.Document
	assetNo := 0
	for _, key := range xobjects.Keys() {
		obj := xobjects.Key(key)
		if obj.Key("Subtype").Name() != "Image" {
			continue
		}

		img, rawHash, err := decodeXObjectImage(obj)
		if err != nil {
			assetNo++
			continue
		}
		img = resizeToMax(img, maxExtractedImageDim)

		tmpPath, err := r.writePNG(basePath, pageNo, assetNo, img)
		if err != nil {
			assetNo++
			continue
		}

		docs = append(docs, metadata.Document{
			Hash: rawHash,
			Meta: metadata.BasicMetaData{
				FilePath:      tmpPath,
				FileType:      ".png",
				TempFilePath:  tmpPath,
				BaseSource:    basePath,
				FileLastModAt: now,
				FileCreatedAt: now,
				PageNo:        pageNo,
				AssetNo:       assetNo,
			},
		})
		assetNo++
	}
	return docs, nil
}

// decodeXObjectImage reads the raw image stream and converts it to RGBA,
// applying a CMYK→RGB conversion when the color space indicates CMYK —
// PDF embeds CMYK images with no alpha channel and inverted component
// semantics relative to Go's image/color.CMYK type is handled by simple
// subtractive conversion. It also returns a content hash of the raw stream,
// computed before any decode/convert step so two identical embedded images
// always hash the same regardless of the image's color space.
func decodeXObjectImage(obj pdf.Value) (image.Image, string, error) {
	data, err := obj.Reader()
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return nil, "", err
	}
	rawHash := fmt.Sprintf("%x", md5.Sum(buf.Bytes())) //nolint:gosec // content fingerprint, not security

	if obj.Key("ColorSpace").Name() == "DeviceCMYK" {
		img, err := decodeCMYKRaw(buf.Bytes(), obj.Key("Width").Int64(), obj.Key("Height").Int64())
		return img, rawHash, err
	}

	img, _, err := image.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, "", err
	}
	return img, rawHash, nil
}

// resizeToMax downscales img, preserving aspect ratio, so its longer side
// is at most maxDim. Returns img unchanged if it already fits.
func resizeToMax(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dstW, dstH := int(float64(w)*scale), int(float64(h)*scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func decodeCMYKRaw(raw []byte, width, height int64) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("reader/pdf: invalid image dimensions")
	}
	w, h := int(width), int(height)
	if len(raw) < w*h*4 {
		return nil, fmt.Errorf("reader/pdf: truncated CMYK stream")
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			c, m, ye, k := raw[i], raw[i+1], raw[i+2], raw[i+3]
			r, g, b, _ := color.CMYK{C: c, M: m, Y: ye, K: k}.RGBA()
			out.Set(x, y, color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255})
		}
	}
	return out, nil
}

func (r *PDFReader) writePNG(basePath string, pageNo, assetNo int, img image.Image) (string, error) {
	dir := r.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	// assetNo resets to 0 at the start of every page, so pageNo must be
	// part of the seed or images on different pages collide on one path.
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d:%d", basePath, pageNo, assetNo))) //nolint:gosec // deterministic temp name, not security
	name := fmt.Sprintf("raggify_%x.png", sum)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return path, nil
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }
