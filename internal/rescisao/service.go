package rescisao

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/farxc/calculo-rescisao/internal/logger"
	"github.com/farxc/calculo-rescisao/internal/store"
)

// CalculationRepository gives access to the raw AI response of a calculation.
type CalculationRepository interface {
	GetAIResponse(ctx context.Context, calculationID string) (json.RawMessage, error)
	SaveAIResponse(ctx context.Context, calculationID string, resposta json.RawMessage) error
	ClearAIResponse(ctx context.Context, calculationID string) error
}

// Response formats recognized on submission.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

type SubmitResult struct {
	Format  string
	Outcome Outcome
}

// Service wires the pipeline stages to storage for the HTTP entry points.
type Service struct {
	calculations CalculationRepository
	verbas       VerbaRepository
	reconciler   *Reconciler
	log          *logger.Logger
}

func NewService(calculations CalculationRepository, verbas VerbaRepository, reconciler *Reconciler, log *logger.Logger) *Service {
	return &Service{
		calculations: calculations,
		verbas:       verbas,
		reconciler:   reconciler,
		log:          log,
	}
}

const serviceComponent = "Pipeline"

// Reconcile stores the canonical document carried by text.
func (s *Service) Reconcile(ctx context.Context, calculationID, text string) (Outcome, error) {
	return s.reconciler.ReconcileJSON(ctx, calculationID, text)
}

// Submit takes a fresh answer from the agent. Text holding a JSON object is
// reshaped, stored in normalized form and reconciled. Text without any
// object is a Markdown answer: it is stored verbatim and the calculation's
// line items are cleared.
func (s *Service) Submit(ctx context.Context, calculationID, text string) (SubmitResult, error) {
	if calculationID == "" || strings.TrimSpace(text) == "" {
		return SubmitResult{}, newError(KindMissingInput, "missing calculationId or aiResponse", nil)
	}

	doc, err := ExtractJSON(text)
	if KindOf(err) == KindExtractionFailed {
		return s.submitMarkdown(ctx, calculationID, text)
	}
	if err != nil {
		return SubmitResult{}, err
	}

	normalized, _ := Reshape(doc)
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return SubmitResult{}, newError(KindPersistenceFailed, "failed to encode normalized AI response", err)
	}
	if err := s.saveResponse(ctx, calculationID, encoded); err != nil {
		return SubmitResult{}, err
	}

	out, err := s.reconciler.Reconcile(ctx, calculationID, normalized)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Format: FormatJSON, Outcome: out}, nil
}

func (s *Service) submitMarkdown(ctx context.Context, calculationID, text string) (SubmitResult, error) {
	encoded, err := json.Marshal(text)
	if err != nil {
		return SubmitResult{}, newError(KindPersistenceFailed, "failed to encode AI response", err)
	}
	if err := s.saveResponse(ctx, calculationID, encoded); err != nil {
		return SubmitResult{}, err
	}
	s.clearVerbas(ctx, calculationID)
	s.log.Info(serviceComponent, "Calculation %s received a Markdown answer, no line items stored", calculationID)
	return SubmitResult{Format: FormatMarkdown, Outcome: Outcome{Skipped: true}}, nil
}

func (s *Service) saveResponse(ctx context.Context, calculationID string, encoded []byte) error {
	err := s.calculations.SaveAIResponse(ctx, calculationID, encoded)
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindNotFound, "calculation not found", err)
	}
	if err != nil {
		return newError(KindPersistenceFailed, "failed to store AI response", err)
	}
	return nil
}

// clearVerbas deletes both line item tables, logging failures.
func (s *Service) clearVerbas(ctx context.Context, calculationID string) {
	if _, err := s.verbas.DeleteProventos(ctx, calculationID); err != nil {
		s.log.Error(serviceComponent, "%s: proventos of calculation %s: %v", KindDeleteFailed, calculationID, err)
	}
	if _, err := s.verbas.DeleteDescontos(ctx, calculationID); err != nil {
		s.log.Error(serviceComponent, "%s: descontos of calculation %s: %v", KindDeleteFailed, calculationID, err)
	}
}

// Reprocess replays the stored AI response of a calculation through the
// reconciler.
func (s *Service) Reprocess(ctx context.Context, calculationID string) (Outcome, error) {
	if calculationID == "" {
		return Outcome{}, newError(KindMissingInput, "missing calculationId", nil)
	}

	stored, err := s.calculations.GetAIResponse(ctx, calculationID)
	if err != nil {
		return Outcome{}, newError(KindNotFound, "calculation not found or no AI response available", err)
	}

	final, err := storedJSON(stored)
	if err != nil {
		return Outcome{}, err
	}

	if _, err := TryParseJSON(final); err != nil {
		return Outcome{}, newError(KindInvalidJSON, "final AI response content is not valid JSON", err)
	}

	doc, err := ParseDocument([]byte(final))
	if err != nil {
		// array-rooted content has no Verbas_Rescisorias to reconcile
		doc = Document{}
	}
	return s.reconciler.Reconcile(ctx, calculationID, doc)
}

// storedJSON turns the stored resposta_ia value into JSON text: objects and
// arrays are used as is, strings go through ExtractBlock.
func storedJSON(stored json.RawMessage) (string, error) {
	stored = bytes.TrimSpace(stored)
	if len(stored) == 0 || string(stored) == "null" || string(stored) == `""` {
		return "", newError(KindNotFound, "calculation not found or no AI response available", nil)
	}

	switch stored[0] {
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, stored); err != nil {
			return "", newError(KindInvalidJSON, "final AI response content is not valid JSON", err)
		}
		return buf.String(), nil
	case '"':
		var text string
		if err := json.Unmarshal(stored, &text); err != nil {
			return "", newError(KindInvalidType, "AI response is null or an invalid type", err)
		}
		block, ok := ExtractBlock(text)
		if !ok {
			return "", newError(KindExtractionFailed, "could not extract a valid JSON from the AI response string", nil)
		}
		return block, nil
	default:
		return "", newError(KindInvalidType, "AI response is null or an invalid type", nil)
	}
}

// Clear removes every line item of a calculation and resets its stored AI
// response. Failing to reset the response is only logged.
func (s *Service) Clear(ctx context.Context, calculationID string) error {
	if calculationID == "" {
		return newError(KindMissingInput, "missing calculationId", nil)
	}
	if _, err := s.verbas.DeleteProventos(ctx, calculationID); err != nil {
		return newError(KindDeleteFailed, "failed to delete proventos", err)
	}
	if _, err := s.verbas.DeleteDescontos(ctx, calculationID); err != nil {
		return newError(KindDeleteFailed, "failed to delete descontos", err)
	}
	if err := s.calculations.ClearAIResponse(ctx, calculationID); err != nil {
		s.log.Error(serviceComponent, "%s: calculation %s: %v", KindClearFieldFailed, calculationID, err)
	}
	s.log.Info(serviceComponent, "Cleared entries of calculation %s", calculationID)
	return nil
}
