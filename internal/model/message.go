package model

import (
	"errors"
	"strings"
	"time"
)

type Direction string

const (
	DirectionOperator Direction = "operator"
	DirectionUser     Direction = "user"
)

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaDocument MediaKind = "document"
)

// Media is a retrievable reference to a file attached by an operator.
type Media struct {
	Kind      MediaKind
	URL       string
	Caption   string
	Filename  string
	MIME      string
	SizeBytes int64
}

type Message struct {
	ID        int64
	ChatID    int64
	Sender    Direction
	Text      string
	Media     *Media
	Topic     string
	Delivered bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrEmptyContent = errors.New("message has neither text nor media")

// Content is the sendable payload of a message: text, a media reference,
// or both. Construct via NewContent so the neither-present case cannot
// be represented.
type Content struct {
	Text  string
	Media *Media
}

func NewContent(text string, media *Media) (Content, error) {
	if media != nil && media.URL == "" {
		media = nil
	}
	if strings.TrimSpace(text) == "" && media == nil {
		return Content{}, ErrEmptyContent
	}
	return Content{Text: text, Media: media}, nil
}

func (c Content) HasMedia() bool {
	return c.Media != nil
}

// Content returns the sendable payload. ok is false for malformed rows
// that carry neither text nor a media reference.
func (m Message) Content() (Content, bool) {
	c, err := NewContent(m.Text, m.Media)
	return c, err == nil
}
