package genai

import (
	"strings"
	"testing"

	"github.com/5399ai/backend/internal/plans"
)

func TestTextModelPerPlan(t *testing.T) {
	cases := map[plans.Name]string{
		plans.Gratuito: modelFlash,
		plans.PRO:      modelFlash,
		plans.VIP:      modelPro,
		plans.PREMIUM:  modelPro,
	}
	for plan, want := range cases {
		if got := TextModel(plan); got != want {
			t.Fatalf("TextModel(%s) = %q, want %q", plan, got, want)
		}
	}
}

func TestVideoModelPerPlan(t *testing.T) {
	model, resolution := VideoModel(plans.Gratuito)
	if model != modelVideoFast || resolution != videoResolutionSD {
		t.Fatalf("free tier got %s/%s", model, resolution)
	}
	model, resolution = VideoModel(plans.VIP)
	if model != modelVideo || resolution != videoResolutionHD {
		t.Fatalf("top tier got %s/%s", model, resolution)
	}
}

func TestVoicePerPlan(t *testing.T) {
	cases := map[plans.Name]string{
		plans.Gratuito: "Kore",
		plans.PRO:      "Puck",
		plans.VIP:      "Charon",
		plans.PREMIUM:  "Zephyr",
	}
	for plan, want := range cases {
		if got := Voice(plan); got != want {
			t.Fatalf("Voice(%s) = %q, want %q", plan, got, want)
		}
	}
}

func TestEnrichImagePrompt(t *testing.T) {
	if got := EnrichImagePrompt("um gato", plans.Gratuito); got != "um gato" {
		t.Fatalf("free tier must not enrich, got %q", got)
	}
	if got := EnrichImagePrompt("um gato", plans.PRO); !strings.HasSuffix(got, ", high quality, detailed") {
		t.Fatalf("PRO suffix missing: %q", got)
	}
	if got := EnrichImagePrompt("um gato", plans.PREMIUM); !strings.Contains(got, "photorealistic") {
		t.Fatalf("top tier suffix missing: %q", got)
	}
}

func TestStudyPromptMentionsTopicAndGrade(t *testing.T) {
	prompt := StudyPrompt("fotossíntese", "7º ano")
	if !strings.Contains(prompt, "fotossíntese") || !strings.Contains(prompt, "7º ano") {
		t.Fatalf("prompt missing inputs: %q", prompt)
	}
}
