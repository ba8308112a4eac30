package extract

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// decompressContainer decodes an MS-OVBA compressed container: a 0x01
// signature byte followed by 4096-byte chunks, each either stored raw or
// compressed with an LZ77 variant of literal and copy tokens.
func decompressContainer(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != 0x01 {
		return nil, errors.New("missing compressed container signature")
	}

	var out []byte
	i := 1
	for i+2 <= len(data) {
		header := binary.LittleEndian.Uint16(data[i:])
		i += 2

		// Header layout: bits 0-11 size-3 (including the header itself),
		// bits 12-14 signature 0b011, bit 15 compressed flag.
		if header>>12&0x7 != 0x3 {
			return nil, fmt.Errorf("bad chunk signature in header 0x%04X", header)
		}
		size := int(header&0x0FFF) + 3
		compressed := header&0x8000 != 0

		end := i + size - 2
		if end > len(data) {
			end = len(data)
		}

		if !compressed {
			// Raw chunk: 4096 bytes stored verbatim.
			rawEnd := i + 4096
			if rawEnd > len(data) {
				rawEnd = len(data)
			}
			out = append(out, data[i:rawEnd]...)
			i = rawEnd
			continue
		}

		chunkStart := len(out)
		for i < end {
			flags := data[i]
			i++
			for bit := 0; bit < 8 && i < end; bit++ {
				if flags&(1<<bit) == 0 {
					out = append(out, data[i])
					i++
					continue
				}
				if i+2 > end {
					return nil, errors.New("truncated copy token")
				}
				token := binary.LittleEndian.Uint16(data[i:])
				i += 2

				length, offset := decodeCopyToken(token, len(out)-chunkStart)
				start := len(out) - offset
				if start < chunkStart {
					return nil, fmt.Errorf("copy token offset %d out of range", offset)
				}
				// Ranges may overlap; copy byte by byte.
				for j := 0; j < length; j++ {
					out = append(out, out[start+j])
				}
			}
		}
	}

	return out, nil
}

// decodeCopyToken splits a copy token into length and offset. The bit split
// depends on how far into the decompressed chunk we are.
func decodeCopyToken(token uint16, pos int) (length, offset int) {
	bits := 4
	for bits < 12 && 1<<bits < pos {
		bits++
	}
	lengthMask := uint16(0xFFFF) >> bits
	length = int(token&lengthMask) + 3
	offset = int(token>>(16-bits)) + 1
	return length, offset
}
