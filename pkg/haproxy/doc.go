// Package haproxy extracts the routing topology from HAProxy configuration
// text.
//
// Only the statements that shape request routing are read:
//
//	frontend <name>                           starts a frontend section
//	backend <name>                            starts a backend section
//	acl <name> <criterion>                    defines an ACL (global or scoped)
//	server <name> <address> ...               a server of the enclosing backend
//	use_backend <name> [if|unless <cond>]     routes a frontend to a backend
//	default_backend <name>                    same, without a condition
//
// Every other line is ignored, so partial or invalid configurations still
// produce a graph. The result is a [graph.Graph] with node ids
// "frontend::<name>", "acl::<name>", "backend::<name>" and
// "server::<backend>::<name>".
//
// A conditional route whose condition names known ACLs becomes two edges per
// ACL, frontend to ACL and ACL to backend. A condition that names no known
// ACL becomes a single dashed frontend to backend edge labelled "acl".
package haproxy
