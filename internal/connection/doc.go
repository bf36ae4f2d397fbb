// Package connection implements the streaming side of the live quote client.
//
// A Client wraps one gorilla/websocket connection with ping/pong keepalive and
// serialized writes. A Session drives exactly one connection attempt through
// Opening, Open and Closed, declaring the full subscription set on open and
// handing every inbound message to a Handler. A Supervisor runs sessions one
// at a time in a loop with a fixed reconnect delay until Disconnect is called.
package connection
