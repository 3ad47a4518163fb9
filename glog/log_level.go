package glog

const (
	// generic error message
	LV_ERR_DETAIL = 1
	// error stack or DEBUG
	LV_ERR_STACK = 2

	LV_CONNECT   = 1 // peer
	LV_SESSION   = 1 // chat
	LV_HANDSHAKE = 2 // handshake
	LV_STATE     = 2 // peer, chat

	LV_CONFIG   = 3 // config
	LV_CHAT_FRM = 4 // chat
	LV_KEY_BYTE = 5 // cipher
)
