package tool

import (
	"fmt"
	"net"
	"slices"

	qrcode "github.com/skip2/go-qrcode"
)

// GetLocalIPv4List returns the non-loopback IPv4 addresses of this host, sorted.
func GetLocalIPv4List() []string {
	var result []string

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return result
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ipv4 := ip.To4(); ipv4 != nil {
			result = append(result, ipv4.String())
		}
	}
	slices.Sort(result)
	return result
}

// IntakeURL is the address other machines on the LAN can post files to.
func IntakeURL(port int) string {
	host := "127.0.0.1"
	if ips := GetLocalIPv4List(); len(ips) > 0 {
		host = ips[0]
	}
	return fmt.Sprintf("http://%s:%d/file", host, port)
}

// TerminalQRCode renders content as a QR code made of block characters.
func TerminalQRCode(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	return qr.ToSmallString(false), nil
}
