package genai

import (
	"encoding/json"
	"testing"
)

func TestPartValidate(t *testing.T) {
	if err := TextPart("olá").Validate(); err != nil {
		t.Fatalf("valid text part rejected: %v", err)
	}
	if err := MediaPart(PartImage, "image/png", "aGVsbG8=").Validate(); err != nil {
		t.Fatalf("valid image part rejected: %v", err)
	}
	if err := (Part{Type: PartText}).Validate(); err == nil {
		t.Fatal("empty text part must be rejected")
	}
	if err := (Part{Type: PartVideo}).Validate(); err == nil {
		t.Fatal("media part without inline data must be rejected")
	}
	if err := (Part{Type: "gif"}).Validate(); err == nil {
		t.Fatal("unknown part type must be rejected")
	}
}

func TestToWireDropsTypeTag(t *testing.T) {
	encoded, errEncode := json.Marshal(TextPart("olá").toWire())
	if errEncode != nil {
		t.Fatalf("marshal: %v", errEncode)
	}
	if string(encoded) != `{"text":"olá"}` {
		t.Fatalf("unexpected wire text part: %s", encoded)
	}

	encoded, errEncode = json.Marshal(MediaPart(PartAudio, "audio/wav", "QUJD").toWire())
	if errEncode != nil {
		t.Fatalf("marshal: %v", errEncode)
	}
	if string(encoded) != `{"inlineData":{"mimeType":"audio/wav","data":"QUJD"}}` {
		t.Fatalf("unexpected wire media part: %s", encoded)
	}
}
