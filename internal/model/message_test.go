package model

import (
	"errors"
	"testing"
)

func TestNewContent_RejectsEmpty(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		text  string
		media *Media
	}{
		{name: "both empty", text: "", media: nil},
		{name: "whitespace only", text: "  \n\t ", media: nil},
		{name: "media without url", text: "", media: &Media{Kind: MediaImage}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewContent(tc.text, tc.media)
			if !errors.Is(err, ErrEmptyContent) {
				t.Fatalf("expected ErrEmptyContent, got %v", err)
			}
		})
	}
}

func TestNewContent_Valid(t *testing.T) {
	t.Parallel()

	if _, err := NewContent("hello", nil); err != nil {
		t.Fatalf("text-only content: %v", err)
	}

	media := &Media{Kind: MediaImage, URL: "https://files.example.com/a.jpg"}
	c, err := NewContent("", media)
	if err != nil {
		t.Fatalf("media-only content: %v", err)
	}
	if !c.HasMedia() {
		t.Fatalf("expected HasMedia() true")
	}

	if _, err := NewContent("caption", media); err != nil {
		t.Fatalf("caption+media content: %v", err)
	}
}

func TestMessage_Content(t *testing.T) {
	t.Parallel()

	m := Message{ID: 1, ChatID: 10, Sender: DirectionOperator}
	if _, ok := m.Content(); ok {
		t.Fatalf("expected empty row to have no content")
	}

	m.Text = "hi"
	c, ok := m.Content()
	if !ok || c.Text != "hi" {
		t.Fatalf("expected content with text, got ok=%v content=%+v", ok, c)
	}
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	cases := map[Outcome]string{
		OutcomeDelivered:   "delivered",
		OutcomeRateLimited: "rate_limited",
		OutcomeBlocked:     "blocked",
		OutcomeRejected:    "rejected",
		OutcomeTransient:   "transient",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestOutcome_Terminal(t *testing.T) {
	t.Parallel()

	if !OutcomeBlocked.Terminal() || !OutcomeRejected.Terminal() {
		t.Fatalf("expected blocked and rejected to be terminal")
	}
	if OutcomeDelivered.Terminal() || OutcomeRateLimited.Terminal() || OutcomeTransient.Terminal() {
		t.Fatalf("expected non-terminal outcomes")
	}
}
