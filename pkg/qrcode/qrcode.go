package qrcode

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// QRService renders team join links as QR codes.
type QRService struct {
	baseURL string // e.g. "https://fest.example.com/join/"
}

func NewQRService(baseURL string) *QRService {
	return &QRService{
		baseURL: baseURL,
	}
}

// JoinURL is the link a teammate opens to join with code.
func (s *QRService) JoinURL(code string) string {
	return s.baseURL + url.PathEscape(code)
}

// GenerateQRCode returns a PNG QR code for the join link of code.
func (s *QRService) GenerateQRCode(code string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(s.JoinURL(code), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}

	return png, nil
}
