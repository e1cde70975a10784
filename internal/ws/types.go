package ws

const (
	// client - server
	MsgFilter  = "filter"
	MsgSearch  = "search"
	MsgRefresh = "refresh"
	MsgPing    = "ping"

	// server - client
	MsgReady   = "ready"
	MsgView    = "view"
	MsgSession = "session"
	MsgPong    = "pong"
	MsgError   = "error"
)
