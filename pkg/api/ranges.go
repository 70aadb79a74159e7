package api

import (
	"fmt"
	"strconv"
	"strings"
)

// byteRange is one satisfiable HTTP byte range (inclusive bounds).
type byteRange struct {
	start int64
	end   int64
}

func (r byteRange) length() int64 {
	return r.end - r.start + 1
}

func (r byteRange) contentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.start, r.end, size)
}

// errUnsatisfiableRange means the header parsed but no byte is in range.
var errUnsatisfiableRange = fmt.Errorf("range not satisfiable")

// parseRange parses a single-range `Range: bytes=` header against a body of
// the given size. A malformed header returns ("", false)-style nil range and
// an error distinct from unsatisfiable, letting the caller fall back to 200.
func parseRange(header string, size int64) (*byteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, fmt.Errorf("unsupported range unit")
	}
	spec := strings.TrimPrefix(header, prefix)
	// Multiple ranges are not served; take the first.
	if idx := strings.Index(spec, ","); idx >= 0 {
		spec = spec[:idx]
	}
	start, end, found := strings.Cut(spec, "-")
	if !found {
		return nil, fmt.Errorf("malformed range")
	}

	if start == "" {
		// Suffix form: last N bytes.
		n, err := strconv.ParseInt(end, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("malformed range")
		}
		if n > size {
			n = size
		}
		if size == 0 {
			return nil, errUnsatisfiableRange
		}
		return &byteRange{start: size - n, end: size - 1}, nil
	}

	s, err := strconv.ParseInt(start, 10, 64)
	if err != nil || s < 0 {
		return nil, fmt.Errorf("malformed range")
	}
	if s >= size {
		return nil, errUnsatisfiableRange
	}
	e := size - 1
	if end != "" {
		e, err = strconv.ParseInt(end, 10, 64)
		if err != nil || e < s {
			return nil, fmt.Errorf("malformed range")
		}
		if e > size-1 {
			e = size - 1
		}
	}
	return &byteRange{start: s, end: e}, nil
}
