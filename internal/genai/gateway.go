package genai

import (
	"context"
	"errors"
	"fmt"

	"github.com/5399ai/backend/internal/credits"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
)

// User-facing gate and failure messages, verbatim.
var (
	ErrNoVideoCredits = errors.New("Você não tem créditos de vídeo suficientes. Melhore seu plano para obter mais.")
	ErrNoAudioCredits = errors.New("Você não tem créditos de áudio suficientes. Melhore seu plano para obter mais.")
	ErrVideoFailed    = errors.New("Falha ao gerar o vídeo.")
	ErrAudioFailed    = errors.New("Falha ao gerar o áudio.")
)

// accountState is the slice of the session the gateway needs: the effective
// user (plan included) and the credit gate.
type accountState interface {
	User() *models.User
	UseCredit(ctx context.Context, resource credits.Resource) (bool, error)
}

// Gateway routes generation requests to the upstream API with the model,
// voice and quality the session's effective plan buys, spending credits
// where the plan meters them.
type Gateway struct {
	state  accountState
	client *Client
}

// NewGateway constructs a generation gateway over a session.
func NewGateway(state accountState, client *Client) *Gateway {
	return &Gateway{state: state, client: client}
}

func (g *Gateway) plan() plans.Name {
	if user := g.state.User(); user != nil {
		return user.Plan
	}
	return plans.Gratuito
}

// Plan reports the effective plan the gateway is routing for.
func (g *Gateway) Plan() plans.Name { return g.plan() }

// ModelFor names the upstream model a request kind resolves to under the
// current plan.
func (g *Gateway) ModelFor(kind string) string {
	switch kind {
	case "image":
		return modelImage
	case "video":
		model, _ := VideoModel(g.plan())
		return model
	case "audio":
		return modelSpeech
	default:
		return TextModel(g.plan())
	}
}

// Chat streams a multimodal chat response, feeding text chunks to onChunk.
func (g *Gateway) Chat(ctx context.Context, history []Turn, parts []Part, onChunk func(string)) error {
	if len(parts) == 0 {
		return fmt.Errorf("genai: empty message")
	}
	for _, p := range parts {
		if errValidate := p.Validate(); errValidate != nil {
			return errValidate
		}
	}
	contents := make([]Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, turn.toWire())
	}
	contents = append(contents, Content{Role: "user", Parts: toWireParts(parts)})

	req := &generateContentRequest{
		Contents:          contents,
		SystemInstruction: &Content{Parts: []wirePart{{Text: SystemInstruction}}},
	}
	return g.client.streamGenerateContent(ctx, TextModel(g.plan()), req, onChunk)
}

// GenerateImage returns the image as a data URL, with the plan's quality
// suffix folded into the prompt.
func (g *Gateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	prediction, errGenerate := g.client.generateImages(ctx, EnrichImagePrompt(prompt, g.plan()))
	if errGenerate != nil {
		return "", errGenerate
	}
	return "data:image/jpeg;base64," + prediction.BytesBase64Encoded, nil
}

// GenerateVideo spends one video credit, generates at the plan's model and
// resolution, and downloads the result.
func (g *Gateway) GenerateVideo(ctx context.Context, prompt string) ([]byte, error) {
	ok, errUse := g.state.UseCredit(ctx, credits.Video)
	if errUse != nil {
		return nil, errUse
	}
	if !ok {
		return nil, ErrNoVideoCredits
	}
	model, resolution := VideoModel(g.plan())
	uri, errGenerate := g.client.generateVideos(ctx, model, prompt, resolution)
	if errGenerate != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoFailed, errGenerate)
	}
	return g.client.download(ctx, uri)
}

// GenerateAudio spends one audio credit and synthesizes speech with the
// plan's voice, returning the base64 payload.
func (g *Gateway) GenerateAudio(ctx context.Context, prompt string) (string, error) {
	ok, errUse := g.state.UseCredit(ctx, credits.Audio)
	if errUse != nil {
		return "", errUse
	}
	if !ok {
		return "", ErrNoAudioCredits
	}
	req := &generateContentRequest{
		Contents: []Content{{Parts: []wirePart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: Voice(g.plan())},
				},
			},
		},
	}
	resp, errGenerate := g.client.generateContent(ctx, modelSpeech, req)
	if errGenerate != nil {
		return "", errGenerate
	}
	data := resp.inlineData()
	if data == nil || data.Data == "" {
		return "", ErrAudioFailed
	}
	return data.Data, nil
}

func (g *Gateway) searched(ctx context.Context, prompt string) (string, []Source, error) {
	req := &generateContentRequest{
		Contents:          []Content{{Role: "user", Parts: []wirePart{{Text: prompt}}}},
		SystemInstruction: &Content{Parts: []wirePart{{Text: SystemInstruction}}},
		Tools:             []tool{{GoogleSearch: &struct{}{}}},
	}
	resp, errGenerate := g.client.generateContent(ctx, TextModel(g.plan()), req)
	if errGenerate != nil {
		return "", nil, errGenerate
	}
	return resp.text(), resp.sources(), nil
}

// Study produces grounded study material for a topic and school grade.
func (g *Gateway) Study(ctx context.Context, topic, grade string) (string, []Source, error) {
	return g.searched(ctx, StudyPrompt(topic, grade))
}

// Creator produces grounded free-form content for a request.
func (g *Gateway) Creator(ctx context.Context, request string) (string, []Source, error) {
	return g.searched(ctx, CreatorPrompt(request))
}
