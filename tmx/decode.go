package tmx

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedCompression = errors.New("tmx: unsupported compression")
	ErrUnsupportedEncoding    = errors.New("tmx: unsupported encoding")
	ErrInvalidData            = errors.New("tmx: invalid layer data")
	ErrTilesetSource          = errors.New("tmx: external tileset not readable")
)

// DecodeData turns the text of a <data> element into raw GIDs.
func DecodeData(data, encoding, compression string) ([]uint32, error) {
	switch encoding {
	case "csv":
		if compression != "" {
			return nil, fmt.Errorf("tmx: csv with %q: %w", compression, ErrUnsupportedCompression)
		}
		return decodeCSV(data)
	case "base64":
		return decodeBase64(data, compression)
	default:
		return nil, fmt.Errorf("tmx: encoding %q: %w", encoding, ErrUnsupportedEncoding)
	}
}

func decodeCSV(data string) ([]uint32, error) {
	fields := strings.Split(data, ",")
	out := make([]uint32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tmx: csv value %q: %w", f, ErrInvalidData)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func decodeBase64(data, compression string) ([]uint32, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(data), ""))
	if err != nil {
		return nil, fmt.Errorf("tmx: base64: %v: %w", err, ErrInvalidData)
	}

	var rd io.ReadCloser
	switch compression {
	case "":
	case "zlib":
		rd, err = zlib.NewReader(bytes.NewReader(raw))
	case "gzip":
		rd, err = gzip.NewReader(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("tmx: compression %q: %w", compression, ErrUnsupportedCompression)
	}
	if err != nil {
		return nil, fmt.Errorf("tmx: %s header: %v: %w", compression, err, ErrInvalidData)
	}
	if rd != nil {
		defer rd.Close()
		raw, err = io.ReadAll(rd)
		if err != nil {
			return nil, fmt.Errorf("tmx: %s stream: %v: %w", compression, err, ErrInvalidData)
		}
	}

	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("tmx: %d bytes is not a multiple of 4: %w", len(raw), ErrInvalidData)
	}
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return out, nil
}
