// Package genai is the generation gateway: the multimodal part model the
// presentation layer speaks, the plan-based model/voice/quality selection,
// and a thin JSON client for the upstream generation API. Video and audio
// calls are gated by the credit ledger before they leave the process.
package genai

import "fmt"

// PartType tags the variants of the multimodal Part union.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
	PartAudio PartType = "audio"
	PartVideo PartType = "video"
)

// InlineData carries base64-encoded media with its mime type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one element of a multimodal message: text, or inline media. The
// JSON shape here is the one the browser exchanges with the API surface;
// toWire converts to the upstream shape, which drops the type tag.
type Part struct {
	Type       PartType    `json:"type"`
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// TextPart builds a text Part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// MediaPart builds an inline-media Part of the given kind.
func MediaPart(kind PartType, mimeType, data string) Part {
	return Part{Type: kind, InlineData: &InlineData{MimeType: mimeType, Data: data}}
}

// Validate rejects parts whose payload does not match their tag.
func (p Part) Validate() error {
	switch p.Type {
	case PartText:
		if p.Text == "" {
			return fmt.Errorf("genai: empty text part")
		}
	case PartImage, PartAudio, PartVideo:
		if p.InlineData == nil || p.InlineData.Data == "" || p.InlineData.MimeType == "" {
			return fmt.Errorf("genai: %s part without inline data", p.Type)
		}
	default:
		return fmt.Errorf("genai: unknown part type %q", p.Type)
	}
	return nil
}

func (p Part) toWire() wirePart {
	if p.Type == PartText {
		return wirePart{Text: p.Text}
	}
	return wirePart{InlineData: p.InlineData}
}

func toWireParts(parts []Part) []wirePart {
	out := make([]wirePart, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.toWire())
	}
	return out
}

// Source is a grounding citation attached to a searched response.
type Source struct {
	Web  *SourceLink `json:"web,omitempty"`
	Maps *SourceLink `json:"maps,omitempty"`
}

// SourceLink is one citation target.
type SourceLink struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}
