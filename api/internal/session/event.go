package session

import "fmt"

type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventStart
	EventClear
	EventPhoto
	EventPhotoCaption
	EventAction
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventClear:
		return "clear"
	case EventPhoto:
		return "photo"
	case EventPhotoCaption:
		return "photo_caption"
	case EventAction:
		return "action"
	case EventUnrecognized:
		return "unrecognized"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one inbound interaction. Which fields are set depends on Kind:
// photos carry FileID (and Caption), actions carry Action, MessageID of the
// menu-bearing message and CallbackID.
type Event struct {
	Kind       EventKind
	ChatID     int64
	MessageID  int
	FileID     string
	Caption    string
	Action     Action
	CallbackID string
}

func StartCommand(chatID int64) Event { return Event{Kind: EventStart, ChatID: chatID} }

func ClearCommand(chatID int64) Event { return Event{Kind: EventClear, ChatID: chatID} }

func PhotoOnly(chatID int64, fileID string) Event {
	return Event{Kind: EventPhoto, ChatID: chatID, FileID: fileID}
}

func PhotoWithCaption(chatID int64, fileID, caption string) Event {
	return Event{Kind: EventPhotoCaption, ChatID: chatID, FileID: fileID, Caption: caption}
}

func ActionPress(action Action, chatID int64, messageID int, callbackID string) Event {
	return Event{Kind: EventAction, ChatID: chatID, MessageID: messageID, Action: action, CallbackID: callbackID}
}

func Unrecognized(chatID int64) Event { return Event{Kind: EventUnrecognized, ChatID: chatID} }
