package net

import (
	"log/slog"
	"net"

	"InkLayer/internal/logging"
)

var loopback = net.IPv4(127, 0, 0, 1)

// GetOutgoingIP finds the address other machines should use in a join
// link.
func GetOutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// Offline networks still have an interface address.
		ip := firstIPv4()
		if ip.Equal(loopback) {
			logging.Logger().Warn("[relay] no non-loopback address, join links will only work locally",
				slog.String("fallback", ip.String()))
		}
		return ip.String(), nil
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

// firstIPv4 returns the first IPv4 address of an interface that is up,
// or loopback when there is none.
func firstIPv4() net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return loopback
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return loopback
}
