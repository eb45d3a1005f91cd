package answer

import (
	"strings"

	"github.com/arogyamitra/medrag/internal/models"
)

const systemPreamble = `You are a medical document assistant. Answer the question using only the numbered excerpts from the patient's own documents below. Cite the excerpts you use as [1], [2], and so on. If the excerpts do not contain the answer, say so plainly.`

const noEvidenceNotice = `No relevant excerpts were found in the patient's documents for this question. Say that you cannot answer from the uploaded documents, and do not invent citations or facts.`

// BuildPrompt renders the full prompt: instructions, evidence (or the
// no-evidence notice), recent conversation turns for follow-up resolution,
// and the question.
func BuildPrompt(question string, actx *AssembledContext, turns []models.Turn) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")

	if actx != nil && len(actx.Entries) > 0 {
		b.WriteString("Excerpts:\n\n")
		b.WriteString(actx.Text)
	} else {
		b.WriteString(noEvidenceNotice)
		b.WriteString("\n\n")
	}

	if len(turns) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, turn := range turns {
			b.WriteString("Q: ")
			b.WriteString(turn.Question)
			b.WriteString("\nA: ")
			b.WriteString(turn.Answer)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}
