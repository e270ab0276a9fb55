// Package engine provides the cdimock HTTP server.
//
// The server emulates endpoints of three external management APIs:
//
//   - cluster manager (cluster autoscaler): machine and node group details,
//     resize acknowledgement
//   - fabric manager: machine list and details, available resources, and the
//     PATCH update that allocates one resource from a pool
//   - identity manager: the OpenID Connect token endpoint
//
// Requests are dispatched by a fixed route table (see Routes) to one of three
// kinds of handler: a fixture read (package fixture), a pool allocation
// (package allocation), or a literal body. Every response is JSON.
package engine
