package datasource

import (
	gnet "github.com/shirou/gopsutil/v3/net"

	"sysdeck/internal/sysinfo"
)

// Connections enumerates TCP and UDP sockets. pidNames resolves owning
// process names; unknown pids leave the name empty. The UDP table is best
// effort: when it cannot be read the TCP rows are still returned.
func Connections(pidNames map[int32]string) ([]*sysinfo.Connection, error) {
	tcp, err := gnet.Connections("tcp")
	if err != nil {
		return nil, &PlatformError{Op: "enumerate tcp connections", Err: err}
	}
	udp, _ := gnet.Connections("udp")

	out := make([]*sysinfo.Connection, 0, len(tcp)+len(udp))
	for _, c := range tcp {
		out = append(out, connectionRow(c, "tcp", pidNames))
	}
	for _, c := range udp {
		out = append(out, connectionRow(c, "udp", pidNames))
	}
	return out, nil
}

func connectionRow(c gnet.ConnectionStat, proto string, pidNames map[int32]string) *sysinfo.Connection {
	state := c.Status
	if state == "" || proto == "udp" {
		state = "n/a"
	}
	return &sysinfo.Connection{
		Protocol:    proto,
		LocalAddr:   c.Laddr.IP,
		LocalPort:   c.Laddr.Port,
		RemoteAddr:  c.Raddr.IP,
		RemotePort:  c.Raddr.Port,
		State:       state,
		PID:         c.Pid,
		ProcessName: pidNames[c.Pid],
	}
}
