package poster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"math"
)

// pngSignature + the IHDR chunk (4 length, 4 type, 13 data, 4 crc)
const ihdrEnd = 8 + 4 + 4 + 13 + 4

// encodePNG encodes `img` as png, declaring its resolution as `dpi`
// (a pHYs chunk, which image/png does not write itself).
func encodePNG(img image.Image, dpi float64) ([]byte, error) {
	buff := new(bytes.Buffer)
	if err := png.Encode(buff, img); err != nil {
		return nil, err
	}

	data := buff.Bytes()
	if len(data) < ihdrEnd || string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("unexpected png layout")
	}

	out := make([]byte, 0, len(data)+21)
	out = append(out, data[:ihdrEnd]...)
	out = append(out, physChunk(dpi)...)
	out = append(out, data[ihdrEnd:]...)
	return out, nil
}

// physChunk builds a pHYs chunk (pixels per meter, unit = meter)
func physChunk(dpi float64) []byte {
	ppm := uint32(math.Round(dpi / MMPerInch * 1000))

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], ppm)
	binary.BigEndian.PutUint32(chunk[12:16], ppm)
	chunk[16] = 1
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))
	return chunk
}

// pngDPI reads back the resolution declared by a pHYs chunk, if any.
func pngDPI(data []byte) (float64, bool) {
	pos := 8
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		kind := string(data[pos+4 : pos+8])
		if kind == "pHYs" && pos+8+9 <= len(data) && data[pos+16] == 1 {
			ppm := binary.BigEndian.Uint32(data[pos+8 : pos+12])
			return float64(ppm) * MMPerInch / 1000, true
		}
		if kind == "IDAT" || kind == "IEND" {
			break
		}
		pos += 12 + length
	}
	return 0, false
}
