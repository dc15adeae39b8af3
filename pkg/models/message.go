package models

import "time"

// MessageStatus is the inbox state of a contact message.
type MessageStatus string

const (
	MessageNew     MessageStatus = "new"
	MessageRead    MessageStatus = "read"
	MessageReplied MessageStatus = "replied"
)

// Message is a contact-form submission shown in the admin inbox.
type Message struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	Status    MessageStatus `json:"status"`
	Reply     string        `json:"reply,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	RepliedAt *time.Time    `json:"replied_at,omitempty"`
}
