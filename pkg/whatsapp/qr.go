package whatsapp

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/mdp/qrterminal"
	"github.com/skip2/go-qrcode"
)

func RenderQRDataURL(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func PrintQR(code string, w io.Writer) {
	qrterminal.GenerateHalfBlock(code, qrterminal.L, w)
}
