package jsonlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open 打开日志文件，"-" 表示标准输入；压缩输入自动解压
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return NewReader(io.NopCloser(os.Stdin))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("jsonlog: open %s: %w", path, err), f.Close())
	}
	return rc, nil
}

// NewReader 按魔数识别 gzip/zstd 并返回解压后的流，未压缩输入原样返回
//
// 关闭返回值会同时关闭 rc。
func NewReader(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zstdCloser{zr}, rc}}, nil
	default:
		return &stackedReader{Reader: br, closers: []io.Closer{rc}}, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// zstd.Decoder.Close 没有返回值
type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
