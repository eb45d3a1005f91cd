package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arogyamitra/medrag/internal/embedding"
	"github.com/arogyamitra/medrag/internal/llm"
	"github.com/arogyamitra/medrag/internal/models"
	"github.com/arogyamitra/medrag/internal/retrieval"
	"github.com/arogyamitra/medrag/internal/session"
	"github.com/arogyamitra/medrag/pkg/utils"
	"go.uber.org/zap"
)

// Stage identifies where in the answer pipeline a request is.
type Stage string

const (
	StageReceived   Stage = "received"
	StageEmbedding  Stage = "embedding_query"
	StageRetrieving Stage = "retrieving"
	StageAssembling Stage = "assembling_context"
	StageGenerating Stage = "generating_answer"
	StageDone       Stage = "done"
)

// maxStoredTurns caps a session's conversation history so long-lived sessions
// stay bounded; prompts only ever use the most recent historyDepth turns.
const maxStoredTurns = 20

// Failure kinds, used by the API layer to render distinct messages.
const (
	KindInvalidRequest       = "invalid_request"
	KindEmbeddingUnavailable = "embedding_unavailable"
	KindLLMUnavailable       = "llm_unavailable"
	KindInternal             = "internal"
)

// Failure is a request failure tagged with the stage it occurred in and a
// stable kind. Every pipeline error reaches the caller as a Failure.
type Failure struct {
	Stage Stage
	Kind  string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s at %s: %v", f.Kind, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// fail wraps err as a Failure, classifying its kind from sentinel errors.
func fail(stage Stage, err error) *Failure {
	kind := KindInternal
	switch {
	case errors.Is(err, embedding.ErrUnavailable):
		kind = KindEmbeddingUnavailable
	case errors.Is(err, llm.ErrUnavailable):
		kind = KindLLMUnavailable
	case errors.Is(err, session.ErrEmptyID):
		kind = KindInvalidRequest
	}
	return &Failure{Stage: stage, Kind: kind, Err: err}
}

// Orchestrator coordinates one question end to end: retrieve evidence,
// assemble the context, call the language model, and record the turn.
type Orchestrator struct {
	store        *session.Store
	retriever    *retrieval.Retriever
	assembler    *Assembler
	completer    llm.Completer
	maxTokens    int
	historyDepth int
	logger       *zap.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets a logger for stage transitions and failures.
func WithLogger(l *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithHistoryDepth sets how many recent turns go into the prompt.
func WithHistoryDepth(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.historyDepth = n }
}

// NewOrchestrator creates an orchestrator with the given collaborators.
func NewOrchestrator(
	store *session.Store,
	retriever *retrieval.Retriever,
	assembler *Assembler,
	completer llm.Completer,
	maxTokens int,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		retriever:    retriever,
		assembler:    assembler,
		completer:    completer,
		maxTokens:    maxTokens,
		historyDepth: 3,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ask answers one question against one session. A session with no ingested
// documents is not an error: the model is told no evidence was found and the
// answer comes back ungrounded. Failures leave the session's index untouched.
func (o *Orchestrator) Ask(ctx context.Context, sessionID, question string) (*models.Answer, error) {
	stage := StageReceived
	if strings.TrimSpace(question) == "" {
		return nil, &Failure{Stage: stage, Kind: KindInvalidRequest, Err: errors.New("question is empty")}
	}
	sess, err := o.store.CreateOrGet(sessionID)
	if err != nil {
		return nil, fail(stage, err)
	}
	o.logStage(sessionID, StageReceived, question)

	stage = StageEmbedding
	o.logStage(sessionID, stage, question)
	queryVec, err := o.retriever.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fail(stage, err)
	}

	stage = StageRetrieving
	o.logStage(sessionID, stage, question)
	candidates, err := o.retriever.RetrieveByVector(sess, queryVec)
	if err != nil {
		return nil, fail(stage, err)
	}

	stage = StageAssembling
	o.logStage(sessionID, stage, question)
	actx := o.assembler.Assemble(candidates)

	stage = StageGenerating
	o.logStage(sessionID, stage, question)
	prompt := BuildPrompt(question, actx, sess.RecentTurns(o.historyDepth))
	text, err := o.completer.Complete(ctx, prompt, o.maxTokens)
	if err != nil {
		return nil, fail(stage, err)
	}

	ans := &models.Answer{
		SessionID: sessionID,
		Question:  question,
		Text:      text,
		Grounded:  len(actx.Entries) > 0,
		Citations: o.citations(sess, actx),
	}
	sess.AppendTurn(models.Turn{
		Question: question,
		Answer:   text,
		AskedAt:  time.Now(),
	}, maxStoredTurns)
	sess.Touch(time.Now())
	o.logStage(sessionID, StageDone, question)
	return ans, nil
}

// citations maps included chunks to citation records, resolving filenames
// from the session's document list.
func (o *Orchestrator) citations(sess *session.Session, actx *AssembledContext) []models.Citation {
	citations := make([]models.Citation, 0, len(actx.Entries))
	for _, entry := range actx.Entries {
		filename := ""
		if doc, ok := sess.Document(entry.Hit.Chunk.DocumentID); ok {
			filename = doc.Filename
		}
		citations = append(citations, models.Citation{
			Label:      entry.Label,
			DocumentID: entry.Hit.Chunk.DocumentID,
			Filename:   filename,
			Page:       entry.Hit.Chunk.Page,
			Score:      entry.Hit.Score,
		})
	}
	return citations
}

func (o *Orchestrator) logStage(sessionID string, stage Stage, question string) {
	if o.logger != nil {
		o.logger.Debug("answer pipeline",
			zap.String("session_id", sessionID),
			zap.String("stage", string(stage)),
			zap.String("question", utils.Truncate(question, 80)),
		)
	}
}
