// Package e2e exercises the full answer pipeline in-process with mock
// embedding and language-model collaborators.
package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arogyamitra/medrag/internal/answer"
	"github.com/arogyamitra/medrag/internal/config"
	"github.com/arogyamitra/medrag/internal/embedding"
	"github.com/arogyamitra/medrag/internal/ingest"
	"github.com/arogyamitra/medrag/internal/llm"
	"github.com/arogyamitra/medrag/internal/models"
	"github.com/arogyamitra/medrag/internal/retrieval"
	"github.com/arogyamitra/medrag/internal/session"
)

const e2eDimensions = 128

type pipeline struct {
	store        *session.Store
	ingestor     *ingest.Ingestor
	orchestrator *answer.Orchestrator
	completer    *llm.MockCompleter
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	embedder := embedding.NewMockEmbedder(e2eDimensions)
	store := session.NewStore(e2eDimensions)
	retriever := retrieval.NewRetriever(embedder, &config.RetrievalConfig{
		TopK:                8,
		SimilarityThreshold: 0.2,
	})
	completer := llm.NewMockCompleter("The patient was diagnosed with type 2 diabetes [1].")
	return &pipeline{
		store:    store,
		ingestor: ingest.NewIngestor(embedder, ingest.NewChunker(200, 20), nil),
		orchestrator: answer.NewOrchestrator(store, retriever, answer.NewAssembler(6000),
			completer, 256),
		completer: completer,
	}
}

func (p *pipeline) ingest(t *testing.T, sessionID, filename string, pages ...string) *models.Document {
	t.Helper()
	sess, err := p.store.CreateOrGet(sessionID)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := p.ingestor.Ingest(context.Background(), sess, &models.DocumentInput{
		Filename: filename,
		Pages:    pages,
	})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestE2E_AnswerCitesTheRightPage(t *testing.T) {
	p := newPipeline(t)
	doc := p.ingest(t, "patient-1", "visit-summary.pdf",
		"The patient was diagnosed with type 2 diabetes during the visit.",
		"The clinic billed $500 for the consultation and laboratory work.",
	)

	ans, err := p.orchestrator.Ask(context.Background(), "patient-1", "What was the patient diagnosed with?")
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Grounded {
		t.Fatal("answer should be grounded in the ingested document")
	}
	if len(ans.Citations) == 0 {
		t.Fatal("grounded answer should carry citations")
	}
	best := ans.Citations[0]
	if best.DocumentID != doc.ID || best.Filename != "visit-summary.pdf" {
		t.Errorf("citation = %+v", best)
	}
	if best.Page != 1 {
		t.Errorf("diagnosis question cites page %d, want page 1", best.Page)
	}

	p.completer.Response = "The clinic billed $500 [1]."
	ans, err = p.orchestrator.Ask(context.Background(), "patient-1", "How much was billed for the consultation?")
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Grounded || len(ans.Citations) == 0 {
		t.Fatalf("billing answer = %+v", ans)
	}
	if ans.Citations[0].Page != 2 {
		t.Errorf("billing question cites page %d, want page 2", ans.Citations[0].Page)
	}
}

func TestE2E_SessionsAreIsolated(t *testing.T) {
	p := newPipeline(t)
	p.ingest(t, "alice", "alice-labs.pdf",
		"Alice's hemoglobin A1c result was 7.2 percent this quarter.")

	p.completer.Response = "I cannot answer from the uploaded documents."
	ans, err := p.orchestrator.Ask(context.Background(), "bob", "What was the hemoglobin A1c result this quarter?")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Grounded {
		t.Error("bob's session must not be grounded in alice's documents")
	}
	if len(ans.Citations) != 0 {
		t.Errorf("bob's answer carries %d citations from another session", len(ans.Citations))
	}
	if !strings.Contains(p.completer.LastPrompt(), "No relevant excerpts") {
		t.Error("bob's prompt should state that no evidence was found")
	}
	if strings.Contains(p.completer.LastPrompt(), "hemoglobin") {
		t.Error("alice's document text leaked into bob's prompt")
	}
}

func TestE2E_FollowUpUsesConversationHistory(t *testing.T) {
	p := newPipeline(t)
	p.ingest(t, "patient-1", "visit-summary.pdf",
		"The patient was diagnosed with type 2 diabetes and prescribed metformin by the doctor.")

	if _, err := p.orchestrator.Ask(context.Background(), "patient-1", "What medication was prescribed by the doctor?"); err != nil {
		t.Fatal(err)
	}
	p.completer.Response = "Metformin is typically taken with meals [1]."
	if _, err := p.orchestrator.Ask(context.Background(), "patient-1", "When should it be taken?"); err != nil {
		t.Fatal(err)
	}

	prompt := p.completer.LastPrompt()
	if !strings.Contains(prompt, "Previous conversation:") {
		t.Fatal("follow-up prompt should include the prior turn")
	}
	if !strings.Contains(prompt, "What medication was prescribed by the doctor?") {
		t.Error("follow-up prompt should quote the earlier question")
	}
}

func TestE2E_SessionLifecycle(t *testing.T) {
	p := newPipeline(t)
	p.ingest(t, "ephemeral", "notes.txt", "Short visit note about the patient.")

	sess, err := p.store.Get("ephemeral")
	if err != nil {
		t.Fatal(err)
	}
	sess.Touch(time.Now().Add(-time.Hour))

	if n := p.store.EvictIdle(time.Now(), 30*time.Minute); n != 1 {
		t.Fatalf("evicted %d sessions, want 1", n)
	}
	if _, err := p.store.Get("ephemeral"); err == nil {
		t.Fatal("evicted session should be gone")
	}

	// Asking again after eviction starts a fresh, empty session.
	p.completer.Response = "I cannot answer from the uploaded documents."
	ans, err := p.orchestrator.Ask(context.Background(), "ephemeral", "What did the visit note say about the patient?")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Grounded {
		t.Error("post-eviction session must not retain the old index")
	}
}
