package genai

import (
	"fmt"

	"github.com/5399ai/backend/internal/plans"
)

const (
	modelFlash        = "gemini-2.5-flash"
	modelPro          = "gemini-2.5-pro"
	modelImage        = "imagen-4.0-generate-001"
	modelSpeech       = "gemini-2.5-flash-preview-tts"
	modelVideo        = "veo-3.1-generate-preview"
	modelVideoFast    = "veo-3.1-fast-generate-preview"
	videoResolutionHD = "1080p"
	videoResolutionSD = "720p"
)

// SystemInstruction is the persona and safety preamble sent with every text
// generation. Kept verbatim from the product.
const SystemInstruction = `Sua missão é ser a assistente de IA mais conhecedora, precisa e segura do mundo, conhecida como 5399AI. Você é 1000 vezes mais poderosa, profissional e capaz do que qualquer outra IA. Responda em português do Brasil.
Priorize a segurança em todas as suas respostas. Evite gerar conteúdo perigoso, antiético ou prejudicial. Ao gerar código, siga as melhores práticas de segurança.
Ao usar ferramentas de pesquisa, sempre baseie suas respostas nos fatos encontrados e cite suas fontes de forma clara e acessível no final da sua resposta.
Ao receber uma imagem, analise-a com atenção. Se um usuário pedir para "copiar" ou "recriar" algo de uma imagem, use suas habilidades de OCR e análise de imagem para extrair o conteúdo (texto, código, layout) e recriá-lo da melhor forma possível.`

func topTier(plan plans.Name) bool {
	return plan == plans.VIP || plan == plans.PREMIUM
}

// TextModel selects the chat/study/creator model for a plan.
func TextModel(plan plans.Name) string {
	if topTier(plan) {
		return modelPro
	}
	return modelFlash
}

// VideoModel selects the video model and resolution for a plan.
func VideoModel(plan plans.Name) (model, resolution string) {
	if topTier(plan) {
		return modelVideo, videoResolutionHD
	}
	return modelVideoFast, videoResolutionSD
}

// Voice maps a plan to its speech synthesis voice.
func Voice(plan plans.Name) string {
	switch plan {
	case plans.PRO:
		return "Puck"
	case plans.VIP:
		return "Charon"
	case plans.PREMIUM:
		return "Zephyr"
	default:
		return "Kore"
	}
}

// EnrichImagePrompt appends the quality suffix the paid tiers get.
func EnrichImagePrompt(prompt string, plan plans.Name) string {
	switch {
	case topTier(plan):
		return prompt + ", 8k, ultra detailed, photorealistic, professional lighting, highest quality"
	case plan == plans.PRO:
		return prompt + ", high quality, detailed"
	default:
		return prompt
	}
}

// StudyPrompt builds the study-material request for a topic and grade.
func StudyPrompt(topic, grade string) string {
	return fmt.Sprintf(`Crie um material de estudo completo em formato Markdown sobre %q para um aluno do %q. O material deve ser bem estruturado, com títulos, subtítulos, listas e exemplos claros. Inclua uma seção de resumo e 5 perguntas de múltipla escolha com respostas ao final.`, topic, grade)
}

// CreatorPrompt builds the free-form creator request.
func CreatorPrompt(request string) string {
	return fmt.Sprintf(`Atenda à seguinte solicitação do usuário: %q. Gere o conteúdo da forma mais completa, profissional e segura possível, usando pesquisa na web para garantir a precisão e a qualidade. O formato de saída deve ser Markdown.`, request)
}
