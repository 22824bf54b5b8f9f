package executor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// BodySource produces a fresh body reader per request so that every attempt
// sends the complete payload.
type BodySource interface {
	NewReader() (io.ReadCloser, error)
	ContentLength() int64
}

// NewBodySource builds a BodySource from an inline body or a body file path.
// It returns nil when neither is set; callers send no body in that case.
func NewBodySource(body, bodyFile string) (BodySource, error) {
	bodyFile = strings.TrimSpace(bodyFile)
	if body != "" && bodyFile != "" {
		return nil, fmt.Errorf("body and body file cannot both be provided")
	}

	if body != "" {
		return &staticBodySource{data: []byte(body)}, nil
	}

	if bodyFile != "" {
		info, err := os.Stat(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("body file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("body file %q is a directory", bodyFile)
		}
		return &fileBodySource{path: bodyFile, size: info.Size()}, nil
	}

	return nil, nil
}

type staticBodySource struct {
	data []byte
}

func (s *staticBodySource) NewReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *staticBodySource) ContentLength() int64 {
	return int64(len(s.data))
}

type fileBodySource struct {
	path string
	size int64
}

func (s *fileBodySource) NewReader() (io.ReadCloser, error) {
	return os.Open(s.path)
}

func (s *fileBodySource) ContentLength() int64 {
	return s.size
}
