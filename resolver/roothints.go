package resolver

import "net"

// RootHint is one entry of the initial nameserver set a resolver
// starts S_INIT from when it holds no closer referral.
type RootHint struct {
	Name string
	IP   net.IP
}

// DefaultRootHints is the IANA root server hint list, used when a
// Resolver is constructed without WithRootHints.
var DefaultRootHints = []RootHint{
	{Name: "a.root-servers.net.", IP: net.ParseIP("198.41.0.4")},
	{Name: "b.root-servers.net.", IP: net.ParseIP("170.247.170.2")},
	{Name: "c.root-servers.net.", IP: net.ParseIP("192.33.4.12")},
	{Name: "d.root-servers.net.", IP: net.ParseIP("199.7.91.13")},
	{Name: "e.root-servers.net.", IP: net.ParseIP("192.203.230.10")},
	{Name: "f.root-servers.net.", IP: net.ParseIP("192.5.5.241")},
	{Name: "g.root-servers.net.", IP: net.ParseIP("192.112.36.4")},
	{Name: "h.root-servers.net.", IP: net.ParseIP("198.97.190.53")},
	{Name: "i.root-servers.net.", IP: net.ParseIP("192.36.148.17")},
	{Name: "j.root-servers.net.", IP: net.ParseIP("192.58.128.30")},
	{Name: "k.root-servers.net.", IP: net.ParseIP("193.0.14.129")},
	{Name: "l.root-servers.net.", IP: net.ParseIP("199.7.83.42")},
	{Name: "m.root-servers.net.", IP: net.ParseIP("202.12.27.33")},
}
