package net

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// URLScheme prefixes share links handed to clients.
const URLScheme = "localboard://"

// ErrNoHost is returned by Browse when no board answered in time.
var ErrNoHost = errors.New("no localboard host found")

// Advertise announces the host on the local network. Shut the returned server
// down to withdraw the announcement.
func Advertise(serviceType string, port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(
		host,
		serviceType,
		"",
		"",
		port,
		[]net.IP{localIPv4()},
		[]string{"LocalBoard"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	log.Printf("[MDNS] Advertising %s as %s on port %d", serviceType, host, port)
	return server, nil
}

// Browse queries the local network for a board host and returns the first
// one found as host:port.
func Browse(serviceType string, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- fmt.Sprintf("%s:%d", e.AddrV4, e.Port):
			default:
			}
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	if err != nil {
		return "", fmt.Errorf("mDNS query failed: %w", err)
	}
	select {
	case addr := <-found:
		log.Printf("[MDNS] Found host at %s", addr)
		return addr, nil
	default:
		return "", ErrNoHost
	}
}

// ShareLink is the link a host shows so others can join.
func ShareLink(port int) string {
	return fmt.Sprintf("%s%s:%d", URLScheme, localIPv4(), port)
}

// localIPv4 is the address other machines on the LAN can reach us at: the
// source address of the default route, or failing that (offline networks) the
// first non-loopback IPv4 interface address, or loopback.
func localIPv4() net.IP {
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if ip := conn.LocalAddr().(*net.UDPAddr).IP.To4(); ip != nil {
			return ip
		}
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Printf("[MDNS] Listing interface addresses failed: %v", err)
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip := ipnet.IP.To4(); ip != nil {
			return ip
		}
	}
	log.Println("[MDNS] No LAN address found, using loopback")
	return net.IPv4(127, 0, 0, 1).To4()
}
