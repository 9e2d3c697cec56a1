package model

import (
	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
)

// SendPayload is the outbound message body. Exactly one variant must be
// populated; Validate rejects everything else before dispatch.
type SendPayload struct {
	Text     *TextPayload     `json:"text,omitempty"`
	Media    *MediaPayload    `json:"media,omitempty"`
	Template *TemplatePayload `json:"template,omitempty"`
}

type TextPayload struct {
	Body string `json:"body"`
}

type MediaPayload struct {
	URL      string      `json:"url"`
	Type     MessageType `json:"type"`
	MimeType *string     `json:"mimeType,omitempty"`
	Caption  *string     `json:"caption,omitempty"`
}

type TemplatePayload struct {
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables,omitempty"`
}

var mediaTypes = map[MessageType]bool{
	MessageTypeImage:    true,
	MessageTypeVideo:    true,
	MessageTypeAudio:    true,
	MessageTypeDocument: true,
}

// Validate checks that exactly one variant is set and that the set variant
// is well formed.
func (p *SendPayload) Validate() error {
	populated := 0
	if p.Text != nil {
		populated++
	}
	if p.Media != nil {
		populated++
	}
	if p.Template != nil {
		populated++
	}
	if populated == 0 {
		return apperrors.ValidationError("payload must contain one of text, media or template")
	}
	if populated > 1 {
		return apperrors.ValidationError("payload must contain exactly one of text, media or template")
	}

	switch {
	case p.Text != nil:
		if p.Text.Body == "" {
			return apperrors.MissingRequired("text.body")
		}
	case p.Media != nil:
		if p.Media.URL == "" {
			return apperrors.MissingRequired("media.url")
		}
		if !mediaTypes[p.Media.Type] {
			return apperrors.InvalidInput("media.type", "must be one of image, video, audio, document")
		}
	case p.Template != nil:
		if p.Template.TemplateID == "" {
			return apperrors.MissingRequired("template.templateId")
		}
	}

	return nil
}

// MessageType returns the message type the payload produces once sent.
func (p *SendPayload) MessageType() MessageType {
	switch {
	case p.Media != nil:
		return p.Media.Type
	case p.Template != nil:
		return MessageTypeTemplate
	default:
		return MessageTypeText
	}
}
