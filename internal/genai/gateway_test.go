package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/5399ai/backend/internal/credits"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
)

type fakeState struct {
	plan   plans.Name
	noUser bool
	allow  bool
	used   []credits.Resource
}

func (f *fakeState) User() *models.User {
	if f.noUser {
		return nil
	}
	return &models.User{ID: "u1", Email: "u1@exemplo.com", Plan: f.plan}
}

func (f *fakeState) UseCredit(_ context.Context, resource credits.Resource) (bool, error) {
	f.used = append(f.used, resource)
	return f.allow, nil
}

func newTestGateway(state *fakeState, handler http.Handler) (*Gateway, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, "test-key")
	client.pollInterval = time.Millisecond
	return NewGateway(state, client), server
}

func TestModelForResolvesByKindAndPlan(t *testing.T) {
	vip := NewGateway(&fakeState{plan: plans.VIP}, nil)
	free := NewGateway(&fakeState{plan: plans.Gratuito}, nil)

	if got := vip.ModelFor("chat"); got != modelPro {
		t.Fatalf("vip chat model %q", got)
	}
	if got := free.ModelFor("study"); got != modelFlash {
		t.Fatalf("free study model %q", got)
	}
	if got := vip.ModelFor("image"); got != modelImage {
		t.Fatalf("image model %q", got)
	}
	if got := vip.ModelFor("audio"); got != modelSpeech {
		t.Fatalf("audio model %q", got)
	}
	if got := vip.ModelFor("video"); got != modelVideo {
		t.Fatalf("vip video model %q", got)
	}
	if got := free.ModelFor("video"); got != modelVideoFast {
		t.Fatalf("free video model %q", got)
	}
}

func TestGenerateAudioUsesPlanVoice(t *testing.T) {
	state := &fakeState{plan: plans.VIP, allow: true}
	var gotPath string
	var gotReq generateContentRequest
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if errDecode := json.NewDecoder(r.Body).Decode(&gotReq); errDecode != nil {
			t.Errorf("decode request: %v", errDecode)
		}
		resp := generateContentResponse{Candidates: []candidate{{
			Content: &Content{Parts: []wirePart{{InlineData: &InlineData{MimeType: "audio/wav", Data: "QUJD"}}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	audio, errGenerate := gw.GenerateAudio(context.Background(), "diga olá")
	if errGenerate != nil {
		t.Fatalf("generate audio: %v", errGenerate)
	}
	if audio != "QUJD" {
		t.Fatalf("unexpected audio payload %q", audio)
	}
	if !strings.Contains(gotPath, modelSpeech) {
		t.Fatalf("expected speech model in path, got %s", gotPath)
	}
	if voice := gotReq.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; voice != "Charon" {
		t.Fatalf("VIP must synthesize with Charon, got %q", voice)
	}
	if len(state.used) != 1 || state.used[0] != credits.Audio {
		t.Fatalf("expected exactly one audio credit spent, got %v", state.used)
	}
}

func TestGenerateAudioGatedWhenOutOfCredits(t *testing.T) {
	state := &fakeState{plan: plans.Gratuito, allow: false}
	called := false
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	if _, errGenerate := gw.GenerateAudio(context.Background(), "x"); !errors.Is(errGenerate, ErrNoAudioCredits) {
		t.Fatalf("expected ErrNoAudioCredits, got %v", errGenerate)
	}
	if called {
		t.Fatal("upstream must not be reached without credits")
	}
}

func TestGenerateVideoPollsAndDownloads(t *testing.T) {
	state := &fakeState{plan: plans.PREMIUM, allow: true}
	polls := 0
	var server *httptest.Server
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, ":predictLongRunning"):
			if !strings.Contains(r.URL.Path, modelVideo) {
				t.Errorf("PREMIUM must use the preview model, path %s", r.URL.Path)
			}
			var req videoRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Parameters.Resolution != videoResolutionHD {
				t.Errorf("PREMIUM must render 1080p, got %s", req.Parameters.Resolution)
			}
			_ = json.NewEncoder(w).Encode(videoOperation{Name: "operations/op1"})
		case strings.HasSuffix(r.URL.Path, "/v1beta/operations/op1"):
			polls++
			op := videoOperation{Name: "operations/op1", Done: polls >= 2}
			if op.Done {
				op.Response = &videoResponse{GenerateVideoResponse: &generateVideoResponse{
					GeneratedSamples: []generatedSample{{Video: &videoRef{URI: server.URL + "/files/v1"}}},
				}}
			}
			_ = json.NewEncoder(w).Encode(op)
		case strings.HasSuffix(r.URL.Path, "/files/v1"):
			if !strings.Contains(r.URL.RawQuery, "key=test-key") {
				t.Errorf("download must carry the api key, query %q", r.URL.RawQuery)
			}
			fmt.Fprint(w, "MP4BYTES")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	video, errGenerate := gw.GenerateVideo(context.Background(), "um rio")
	if errGenerate != nil {
		t.Fatalf("generate video: %v", errGenerate)
	}
	if string(video) != "MP4BYTES" {
		t.Fatalf("unexpected video payload %q", video)
	}
	if polls < 2 {
		t.Fatalf("expected the operation to be polled, polls=%d", polls)
	}
	if len(state.used) != 1 || state.used[0] != credits.Video {
		t.Fatalf("expected exactly one video credit spent, got %v", state.used)
	}
}

func TestGenerateVideoGatedWhenOutOfCredits(t *testing.T) {
	state := &fakeState{plan: plans.Gratuito, allow: false}
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be reached without credits")
	}))
	defer server.Close()

	if _, errGenerate := gw.GenerateVideo(context.Background(), "x"); !errors.Is(errGenerate, ErrNoVideoCredits) {
		t.Fatalf("expected ErrNoVideoCredits, got %v", errGenerate)
	}
}

func TestGenerateImageReturnsDataURL(t *testing.T) {
	state := &fakeState{plan: plans.PRO, allow: true}
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !strings.HasSuffix(req.Instances[0].Prompt, ", high quality, detailed") {
			t.Errorf("PRO prompt not enriched: %q", req.Instances[0].Prompt)
		}
		_ = json.NewEncoder(w).Encode(imageResponse{Predictions: []imagePrediction{{
			BytesBase64Encoded: "SU1H", MimeType: "image/jpeg",
		}}})
	}))
	defer server.Close()

	dataURL, errGenerate := gw.GenerateImage(context.Background(), "um gato")
	if errGenerate != nil {
		t.Fatalf("generate image: %v", errGenerate)
	}
	if dataURL != "data:image/jpeg;base64,SU1H" {
		t.Fatalf("unexpected data url %q", dataURL)
	}
}

func TestChatStreamsChunks(t *testing.T) {
	state := &fakeState{plan: plans.Gratuito, allow: true}
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, modelFlash) {
			t.Errorf("free tier must use the flash model, path %s", r.URL.Path)
		}
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SystemInstruction == nil || len(req.SystemInstruction.Parts) == 0 {
			t.Error("system instruction missing")
		}
		if len(req.Contents) != 2 {
			t.Errorf("expected history plus the new turn, got %d contents", len(req.Contents))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"Olá", ", mundo"} {
			chunk := generateContentResponse{Candidates: []candidate{{
				Content: &Content{Parts: []wirePart{{Text: text}}},
			}}}
			encoded, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", encoded)
		}
	}))
	defer server.Close()

	var got strings.Builder
	history := []Turn{{Role: "model", Parts: []Part{TextPart("anterior")}}}
	errChat := gw.Chat(context.Background(), history, []Part{TextPart("oi")}, func(chunk string) {
		got.WriteString(chunk)
	})
	if errChat != nil {
		t.Fatalf("chat: %v", errChat)
	}
	if got.String() != "Olá, mundo" {
		t.Fatalf("unexpected streamed text %q", got.String())
	}
}

func TestChatRejectsInvalidParts(t *testing.T) {
	state := &fakeState{plan: plans.Gratuito, allow: true}
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be reached for invalid input")
	}))
	defer server.Close()

	if err := gw.Chat(context.Background(), nil, nil, nil); err == nil {
		t.Fatal("empty message must be rejected")
	}
	if err := gw.Chat(context.Background(), nil, []Part{{Type: PartImage}}, nil); err == nil {
		t.Fatal("tagless media must be rejected")
	}
}

func TestStudyReturnsSources(t *testing.T) {
	state := &fakeState{plan: plans.VIP, allow: true}
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Tools[0].GoogleSearch == nil {
			t.Error("search tool missing")
		}
		resp := generateContentResponse{Candidates: []candidate{{
			Content: &Content{Parts: []wirePart{{Text: "# Material"}}},
			GroundingMetadata: &groundingMetadata{GroundingChunks: []Source{{
				Web: &SourceLink{URI: "https://exemplo.com", Title: "Exemplo"},
			}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	content, sources, errStudy := gw.Study(context.Background(), "frações", "5º ano")
	if errStudy != nil {
		t.Fatalf("study: %v", errStudy)
	}
	if content != "# Material" || len(sources) != 1 || sources[0].Web.URI != "https://exemplo.com" {
		t.Fatalf("unexpected result content=%q sources=%+v", content, sources)
	}
}

func TestLoggedOutFallsBackToFreeTier(t *testing.T) {
	state := &fakeState{noUser: true, allow: true}
	gw, server := newTestGateway(state, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()
	if gw.plan() != plans.Gratuito {
		t.Fatalf("expected Gratuito fallback, got %s", gw.plan())
	}
}
