// Package frame 实现长度前缀帧传输的远端客户端
//
// 线格式：4 字节大端长度 + 负载。一次 Call 写一帧、读一帧。
// 扩展方案（KAYAK/ECIF/GXP 等）的具体语义由上层在负载中自行定义，
// 这里只负责分帧和连接生命周期。
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameSize 默认最大帧长
const DefaultMaxFrameSize = 4 << 20

// ErrFrameTooLarge 帧长超过上限
var ErrFrameTooLarge = errors.New("frame too large")

// ============================================================================
//                              帧编解码
// ============================================================================

// WriteFrame 写入一帧
func WriteFrame(w io.Writer, payload []byte, maxSize int) error {
	if len(payload) > maxSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(payload), maxSize)
	}

	// 长度前缀与负载合并为一次写入
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame 读取一帧
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if uint64(length) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, maxSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return data, nil
}
