package pipeline

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"io"
	"regexp"
	"strconv"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

var (
	lengthRe  = regexp.MustCompile(`/Length (\d+)`)
	widthRe   = regexp.MustCompile(`/Width (\d+)`)
	heightRe  = regexp.MustCompile(`/Height (\d+)`)
	bpcRe     = regexp.MustCompile(`/BitsPerComponent (\d+)`)
	indexedRe = regexp.MustCompile(`/Indexed /DeviceRGB \d+ (\d+) 0 R`)
)

// pdfStream returns the dictionary text and raw stream bytes of the object
// whose dictionary starts at or after offset.
func pdfStream(t *testing.T, pdf []byte, offset int) (string, []byte) {
	t.Helper()
	rest := pdf[offset:]
	kw := bytes.Index(rest, []byte("stream"))
	require.NotEqual(t, -1, kw, "no stream keyword")
	dict := string(rest[:kw])

	m := lengthRe.FindStringSubmatch(dict)
	require.NotNil(t, m, "no /Length in %q", dict)
	n, err := strconv.Atoi(m[1])
	require.NoError(t, err)

	start := kw + len("stream")
	if rest[start] == '\r' {
		start++
	}
	if rest[start] == '\n' {
		start++
	}
	require.LessOrEqual(t, start+n, len(rest))
	data := rest[start : start+n]
	if bytes.Contains([]byte(dict), []byte("/Filter /FlateDecode")) && !bytes.Contains([]byte(dict), []byte("/Subtype /Image")) {
		data = inflate(t, data)
	}
	return dict, data
}

func inflate(t *testing.T, data []byte) []byte {
	t.Helper()
	zr, err := zlib.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return out
}

func atoiMatch(t *testing.T, re *regexp.Regexp, s string) int {
	t.Helper()
	m := re.FindStringSubmatch(s)
	require.NotNil(t, m, "%s not found in %q", re, s)
	n, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	return n
}

// embeddedCodeImage rebuilds the indexed, PNG-predicted image XObject that
// carries the QR code so it can be scanned straight out of the document.
func embeddedCodeImage(t *testing.T, pdf []byte) image.Image {
	t.Helper()
	var dict string
	var raw []byte
	for off := 0; ; {
		i := bytes.Index(pdf[off:], []byte("/Subtype /Image"))
		require.NotEqual(t, -1, i, "no indexed image in document")
		d, data := pdfStream(t, pdf, off+i)
		if indexedRe.MatchString(d) {
			dict, raw = d, data
			break
		}
		off += i + 1
	}

	w := atoiMatch(t, widthRe, dict)
	h := atoiMatch(t, heightRe, dict)
	bpc := atoiMatch(t, bpcRe, dict)
	rows := unpredict(t, inflate(t, raw), (w*bpc+7)/8, h)

	palObj := atoiMatch(t, indexedRe, dict)
	at := bytes.Index(pdf, []byte(fmt.Sprintf("\n%d 0 obj", palObj)))
	require.NotEqual(t, -1, at, "palette object %d missing", palObj)
	_, palette := pdfStream(t, pdf, at)

	img := image.NewGray(image.Rect(0, 0, w, h))
	perByte := 8 / bpc
	mask := byte(1<<bpc - 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b := rows[y][x/perByte]
			shift := uint(8 - bpc*(x%perByte+1))
			idx := int((b >> shift) & mask)
			require.Less(t, idx*3+2, len(palette))
			r, g, bl := palette[idx*3], palette[idx*3+1], palette[idx*3+2]
			img.SetGray(x, y, color.Gray{Y: uint8((int(r) + int(g) + int(bl)) / 3)})
		}
	}
	return img
}

// unpredict reverses PNG row filters (PDF /Predictor 15) with one byte per pixel step.
func unpredict(t *testing.T, data []byte, rowLen, h int) [][]byte {
	t.Helper()
	require.Equal(t, h*(rowLen+1), len(data), "unexpected image data length")
	prev := make([]byte, rowLen)
	out := make([][]byte, h)
	for y := 0; y < h; y++ {
		line := data[y*(rowLen+1):]
		filter, cur := line[0], append([]byte(nil), line[1:rowLen+1]...)
		for i := range cur {
			var left, upLeft byte
			if i > 0 {
				left, upLeft = cur[i-1], prev[i-1]
			}
			up := prev[i]
			switch filter {
			case 0:
			case 1:
				cur[i] += left
			case 2:
				cur[i] += up
			case 3:
				cur[i] += byte((int(left) + int(up)) / 2)
			case 4:
				cur[i] += paeth(left, up, upLeft)
			default:
				t.Fatalf("unknown PNG filter %d", filter)
			}
		}
		out[y], prev = cur, cur
	}
	return out
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func scanImage(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return res.GetText()
}
