package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var errMalformedBox = errors.New("malformed mp4 box")

// box is the byte range of an ISO base media box body.
type box struct {
	body int64
	end  int64
}

// videoDuration returns the playback length in seconds of an MP4 or QuickTime file,
// taken from its movie header. A file without one reports 0.
func videoDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	moov, err := findBox(f, 0, st.Size(), "moov")
	if err != nil || moov == nil {
		return 0, err
	}
	mvhd, err := findBox(f, moov.body, moov.end, "mvhd")
	if err != nil || mvhd == nil {
		return 0, err
	}
	return readMovieHeader(f, mvhd)
}

// findBox scans the sibling boxes in [off, end) for the first one of type name.
func findBox(r io.ReaderAt, off, end int64, name string) (*box, error) {
	var hdr [16]byte
	for off+8 <= end {
		if _, err := r.ReadAt(hdr[:8], off); err != nil {
			return nil, fmt.Errorf("read box header: %w", err)
		}
		size := int64(binary.BigEndian.Uint32(hdr[:4]))
		headerLen := int64(8)
		switch size {
		case 0:
			size = end - off
		case 1:
			if _, err := r.ReadAt(hdr[8:16], off+8); err != nil {
				return nil, fmt.Errorf("read box size: %w", err)
			}
			size = int64(binary.BigEndian.Uint64(hdr[8:16]))
			headerLen = 16
		}
		if size < headerLen || off+size > end {
			return nil, errMalformedBox
		}
		if string(hdr[4:8]) == name {
			return &box{body: off + headerLen, end: off + size}, nil
		}
		off += size
	}
	return nil, nil
}

// readMovieHeader decodes timescale and duration from an mvhd body.
func readMovieHeader(r io.ReaderAt, b *box) (float64, error) {
	var buf [32]byte
	if b.end-b.body < 20 {
		return 0, errMalformedBox
	}
	if _, err := r.ReadAt(buf[:1], b.body); err != nil {
		return 0, err
	}

	var timescale, duration uint64
	switch buf[0] {
	case 0:
		if _, err := r.ReadAt(buf[:20], b.body); err != nil {
			return 0, err
		}
		timescale = uint64(binary.BigEndian.Uint32(buf[12:16]))
		duration = uint64(binary.BigEndian.Uint32(buf[16:20]))
	case 1:
		if b.end-b.body < 32 {
			return 0, errMalformedBox
		}
		if _, err := r.ReadAt(buf[:32], b.body); err != nil {
			return 0, err
		}
		timescale = uint64(binary.BigEndian.Uint32(buf[20:24]))
		duration = binary.BigEndian.Uint64(buf[24:32])
	default:
		return 0, fmt.Errorf("unsupported mvhd version %d", buf[0])
	}
	if timescale == 0 {
		return 0, errMalformedBox
	}
	return float64(duration) / float64(timescale), nil
}
