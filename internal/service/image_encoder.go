package service

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "smart-schedule/pkg/errors"
)

// EncodedImage 可直接内联到识别请求中的图片
type EncodedImage struct {
	MimeType string
	Data     string // 标准 base64，无 data: 前缀
	Size     int    // 原始字节数
}

// EncodeImage 读取图片并编码为 base64
//
// 声明类型为空或为 application/octet-stream 时按内容嗅探；
// 最终类型不是 image/* 时拒绝。maxBytes<=0 表示不限制大小。
func EncodeImage(r io.Reader, declaredMIME string, maxBytes int64) (*EncodedImage, error) {
	if r == nil {
		return nil, apperrors.New(apperrors.ErrIO, "无法读取图片，请重新选择文件", nil)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrIO, "无法读取图片，请重新选择文件", err)
	}
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.ErrIO, "图片内容为空，请重新选择文件", nil)
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return nil, apperrors.New(apperrors.ErrIO,
			fmt.Sprintf("图片过大，最大支持 %d MB", maxBytes>>20), nil)
	}

	mimeType := normalizeMIME(declaredMIME)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeMIME(mimetype.Detect(raw).String())
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, apperrors.New(apperrors.ErrIO, "请上传图片文件",
			fmt.Errorf("unsupported content type %q", mimeType))
	}

	return &EncodedImage{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
		Size:     len(raw),
	}, nil
}

// normalizeMIME 去掉参数部分并转小写，如 "image/PNG; charset=x" → "image/png"
func normalizeMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
