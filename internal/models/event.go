package models

// Event types pushed over websocket connections.
const (
	EventNewMessage        = "new_message"
	EventMessageDeleted    = "message_deleted"
	EventMessageTranslated = "message_translated"
	EventTyping            = "typing"
	EventUserJoined        = "user_joined"
	EventUserLeft          = "user_left"
)

// Event is broadcasted through websockets.
type Event struct {
	Type           string `json:"type"`
	UserID         int    `json:"user_id,omitempty"`
	ConversationID int    `json:"conversation_id,omitempty"`
	MessageID      int    `json:"message_id,omitempty"`
	IsTyping       *bool  `json:"is_typing,omitempty"`
	Data           any    `json:"data,omitempty"`
}

func NewMessageEvent(msg Message) Event {
	return Event{Type: EventNewMessage, ConversationID: msg.ConversationID, Data: msg}
}

func MessageDeletedEvent(conversationID, messageID int) Event {
	return Event{Type: EventMessageDeleted, ConversationID: conversationID, MessageID: messageID}
}

func MessageTranslatedEvent(conversationID int, tm TranslatedMessage) Event {
	return Event{Type: EventMessageTranslated, ConversationID: conversationID, MessageID: tm.OriginalMessageID, Data: tm}
}

func TypingEvent(userID int, typing bool) Event {
	return Event{Type: EventTyping, UserID: userID, IsTyping: &typing}
}

func UserJoinedEvent(conversationID, userID int) Event {
	return Event{Type: EventUserJoined, UserID: userID, ConversationID: conversationID}
}

func UserLeftEvent(conversationID, userID int) Event {
	return Event{Type: EventUserLeft, UserID: userID, ConversationID: conversationID}
}
