package wire

import "fmt"

// MessageType identifies the payload carried by a frame.
type MessageType uint8

// Message catalogue.
const (
	MsgConnectRequest   MessageType = 0x01
	MsgConnectResponse  MessageType = 0x02
	MsgListRequest      MessageType = 0x03
	MsgListResponse     MessageType = 0x04
	MsgUploadRequest    MessageType = 0x05
	MsgUploadData       MessageType = 0x06
	MsgUploadComplete   MessageType = 0x07
	MsgDownloadRequest  MessageType = 0x08
	MsgDownloadData     MessageType = 0x09
	MsgDownloadComplete MessageType = 0x0A
	MsgDeleteRequest    MessageType = 0x0B
	MsgDeleteResponse   MessageType = 0x0C
	MsgErrorResponse    MessageType = 0xFE
	MsgDisconnect       MessageType = 0xFF
)

var messageNames = map[MessageType]string{
	MsgConnectRequest:   "CONNECT_REQUEST",
	MsgConnectResponse:  "CONNECT_RESPONSE",
	MsgListRequest:      "LIST_FILES",
	MsgListResponse:     "FILE_LIST_RESPONSE",
	MsgUploadRequest:    "UPLOAD_REQUEST",
	MsgUploadData:       "UPLOAD_DATA",
	MsgUploadComplete:   "UPLOAD_COMPLETE",
	MsgDownloadRequest:  "DOWNLOAD_REQUEST",
	MsgDownloadData:     "DOWNLOAD_DATA",
	MsgDownloadComplete: "DOWNLOAD_COMPLETE",
	MsgDeleteRequest:    "DELETE_REQUEST",
	MsgDeleteResponse:   "DELETE_RESPONSE",
	MsgErrorResponse:    "ERROR_RESPONSE",
	MsgDisconnect:       "DISCONNECT",
}

// String returns the protocol name of the message type.
func (t MessageType) String() string {
	if name, ok := messageNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(t))
}

// Known reports whether t is part of the message catalogue.
func (t MessageType) Known() bool {
	_, ok := messageNames[t]
	return ok
}

// Status is the result code carried in status payloads.
type Status uint8

const (
	StatusOK             Status = 0
	StatusError          Status = 1
	StatusFileNotFound   Status = 2
	StatusAccessDenied   Status = 3
	StatusInvalidRequest Status = 4
	StatusFileExists     Status = 5
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusFileNotFound:
		return "FILE_NOT_FOUND"
	case StatusAccessDenied:
		return "ACCESS_DENIED"
	case StatusInvalidRequest:
		return "INVALID_REQUEST"
	case StatusFileExists:
		return "FILE_EXISTS"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}
