// Package iface enumerates local network interfaces and derives the
// broadcast-resolver and address-ranking primitives built on top of
// them: per-interface broadcast addresses, the is-local check, and the
// leading-bit proximity match used by the ranking comparator.
package iface

import (
	"net"
)

// Addr is one local interface's IPv4 configuration: its unicast address,
// network mask, and the directed broadcast address derived from them.
type Addr struct {
	IP        net.IP
	Mask      net.IPMask
	Broadcast net.IP
}

// DefaultInterfaces returns the local interfaces eligible for NBT broadcast
// and proximity ranking: excludes VPN interfaces, container/bridge
// interfaces, loopback, and down interfaces.
//
// Users can override this behavior via WithInterfaces() or
// WithInterfaceFilter() functional options.
func DefaultInterfaces() ([]net.Interface, error) {
	allIfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	filtered := make([]net.Interface, 0, len(allIfaces))
	for _, iface := range allIfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isVPN(iface.Name) {
			continue
		}
		if isDocker(iface.Name) {
			continue
		}
		filtered = append(filtered, iface)
	}

	return filtered, nil
}

// isVPN returns true if the interface name matches known VPN naming
// patterns (utun*, tun*, ppp*, wg*, tailscale*, wireguard*).
func isVPN(name string) bool {
	vpnPrefixes := []string{"utun", "tun", "ppp", "wg", "tailscale", "wireguard"}
	for _, prefix := range vpnPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// isDocker returns true if the interface name matches container networking
// patterns (docker0, veth*, br-*).
func isDocker(name string) bool {
	if name == "docker0" {
		return true
	}
	dockerPrefixes := []string{"veth", "br-"}
	for _, prefix := range dockerPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// LocalIPv4Addrs returns the IPv4 address/mask/broadcast triples of
// every interface in ifaces.
func LocalIPv4Addrs(ifaces []net.Interface) ([]Addr, error) {
	var out []Addr
	for _, i := range ifaces {
		addrs, err := i.Addrs()
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			bcast := make(net.IP, net.IPv4len)
			for i := range bcast {
				bcast[i] = ip4[i] | ^ipNet.Mask[i]
			}
			out = append(out, Addr{IP: ip4, Mask: ipNet.Mask, Broadcast: bcast})
		}
	}
	return out, nil
}

// BroadcastAddresses returns the directed IPv4 broadcast address of
// every local interface, used by the bcast resolver to fan out
// simultaneous queries.
func BroadcastAddresses(ifaces []net.Interface) ([]net.IP, error) {
	addrs, err := LocalIPv4Addrs(ifaces)
	if err != nil {
		return nil, err
	}
	out := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Broadcast)
	}
	return out, nil
}

// IsLocal reports whether ip is configured on any local interface, used
// for the ranking "local bonus".
func IsLocal(ifaces []net.Interface, ip net.IP) bool {
	for _, i := range ifaces {
		addrs, err := i.Addrs()
		if err != nil {
			return false
		}
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.Equal(ip) {
				return true
			}
		}
	}
	return false
}

// MatchingBits returns the number of leading bits ip shares with
// ifaceAddr. Both IPs must be the same length (both 4 or both 16 bytes).
func MatchingBits(ip, ifaceAddr net.IP) int {
	a, b := ip.To4(), ifaceAddr.To4()
	if a == nil || b == nil {
		a, b = ip.To16(), ifaceAddr.To16()
		if a == nil || b == nil {
			return 0
		}
	}
	if len(a) != len(b) {
		return 0
	}

	bits := 0
	for i := range a {
		x := a[i] ^ b[i]
		if x == 0 {
			bits += 8
			continue
		}
		for mask := byte(0x80); mask != 0 && x&mask == 0; mask >>= 1 {
			bits++
		}
		break
	}
	return bits
}

// MaxMatchingBits returns the maximum MatchingBits(ip, ifaceAddr) over every
// local interface address of the same family as ip.
func MaxMatchingBits(ifaces []net.Interface, ip net.IP) int {
	isV4 := ip.To4() != nil
	best := 0
	for _, i := range ifaces {
		addrs, err := i.Addrs()
		if err != nil {
			return 0
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || (ipNet.IP.To4() != nil) != isV4 {
				continue
			}
			if m := MatchingBits(ip, ipNet.IP); m > best {
				best = m
			}
		}
	}
	return best
}
