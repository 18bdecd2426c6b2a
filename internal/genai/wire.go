package genai

// Upstream wire shapes. The generation API's part union is structural, not
// tagged: exactly one of the fields is set.
type wirePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// Content is one turn of a conversation on the wire.
type Content struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

// Turn is one turn of a conversation as the browser submits it; the role is
// "user" or "model".
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

func (t Turn) toWire() Content {
	return Content{Role: t.Role, Parts: toWireParts(t.Parts)}
}

type generateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content           *Content           `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata"`
}

type groundingMetadata struct {
	GroundingChunks []Source `json:"groundingChunks"`
}

func (r *generateContentResponse) text() string {
	if r == nil {
		return ""
	}
	out := ""
	for _, cand := range r.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			out += part.Text
		}
	}
	return out
}

func (r *generateContentResponse) inlineData() *InlineData {
	if r == nil {
		return nil
	}
	for _, cand := range r.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

func (r *generateContentResponse) sources() []Source {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return r.Candidates[0].GroundingMetadata.GroundingChunks
}

type imageRequest struct {
	Instances  []imageInstance `json:"instances"`
	Parameters imageParameters `json:"parameters"`
}

type imageInstance struct {
	Prompt string `json:"prompt"`
}

type imageParameters struct {
	SampleCount    int    `json:"sampleCount"`
	AspectRatio    string `json:"aspectRatio"`
	OutputMimeType string `json:"outputMimeType"`
}

type imageResponse struct {
	Predictions []imagePrediction `json:"predictions"`
}

type imagePrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	SampleCount int    `json:"sampleCount"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspectRatio"`
}

type videoOperation struct {
	Name     string         `json:"name"`
	Done     bool           `json:"done"`
	Response *videoResponse `json:"response"`
}

type videoResponse struct {
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse"`
}

type generateVideoResponse struct {
	GeneratedSamples []generatedSample `json:"generatedSamples"`
}

type generatedSample struct {
	Video *videoRef `json:"video"`
}

type videoRef struct {
	URI string `json:"uri"`
}
