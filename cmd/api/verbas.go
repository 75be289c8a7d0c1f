package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/farxc/calculo-rescisao/internal/report"
	"github.com/farxc/calculo-rescisao/internal/rescisao"
	"github.com/farxc/calculo-rescisao/internal/response"
	"github.com/go-chi/chi/v5"
)

const (
	msgVerbasStored         = "Proventos and descontos processed and stored successfully."
	msgNoVerbas             = "No Verbas_Rescisorias found in AI response, skipping detailed insertion."
	msgReprocessed          = "AI response processed successfully."
	msgCleared              = "Calculation entries cleared successfully."
	msgMissingReconcile     = "Missing calculationId or aiResponseJson"
	msgMissingCalculation   = "Missing calculationId"
	msgInvalidFormat        = "Invalid aiResponseJson format"
	msgNotFound             = "Calculation not found or no AI response available"
	msgExtractionFailed     = "Could not extract a valid JSON from the AI response string."
	msgInvalidType          = "AI response is null or an invalid type."
	msgInvalidJSON          = "Final AI response content is not valid JSON."
	msgInvalidPayload       = "invalid request payload"
	msgPersistenceFailed    = "Failed to store proventos and descontos"
	msgClearFailed          = "Failed to clear calculation entries"
	msgMissingAIResponse    = "Missing aiResponse"
	msgUnparsableAIResponse = "Could not parse the JSON found in the AI response."
)

// writePipelineError answers with a 500 for failures that are not part of a
// handler's own contract.
func (app *application) writePipelineError(w http.ResponseWriter, message string, err error) {
	app.logger.Error("API", "%s: %v", message, err)
	details := err.Error()
	var e *rescisao.Error
	if errors.As(err, &e) && e.Details != "" {
		details = e.Details
	}
	writeJSONErrorDetails(w, http.StatusInternalServerError, message, details)
}

type processVerbasRequest struct {
	CalculationID  string          `json:"calculationId"`
	AIResponseJSON json.RawMessage `json:"aiResponseJson"`
}

// payloadText returns the aiResponseJson field as text: a JSON string is
// unquoted, an object is used as is.
func (req processVerbasRequest) payloadText() string {
	raw := json.RawMessage(strings.TrimSpace(string(req.AIResponseJSON)))
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// @Summary		Store proventos and descontos
// @Description	Replaces the stored line items of a calculation with the ones of a normalized AI response.
// @Tags			Verbas
// @Accept			json
// @Produce		json
// @Param			request	body		object{calculationId:string,aiResponseJson:string}	true	"Calculation and normalized AI response"
// @Success		200		{object}	response.MessageResponse
// @Failure		400		{object}	response.ErrorResponse
// @Router			/process-proventos-descontos [post]
func (app *application) handleProcessVerbas(w http.ResponseWriter, r *http.Request) {
	var req processVerbasRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	text := req.payloadText()
	if req.CalculationID == "" || text == "" {
		writeJSONError(w, http.StatusBadRequest, msgMissingReconcile)
		return
	}

	out, err := app.pipeline.Reconcile(r.Context(), req.CalculationID, text)
	if err != nil {
		var e *rescisao.Error
		if errors.As(err, &e) && e.Kind == rescisao.KindInvalidFormat {
			writeJSONErrorDetails(w, http.StatusBadRequest, msgInvalidFormat, e.Details)
			return
		}
		app.writePipelineError(w, msgPersistenceFailed, err)
		return
	}

	message := msgVerbasStored
	if out.Skipped {
		message = msgNoVerbas
	}
	writeJSON(w, http.StatusOK, &response.MessageResponse{Message: message})
}

type calculationRequest struct {
	CalculationID string `json:"calculationId"`
}

// @Summary		Reprocess stored AI response
// @Description	Replays the stored AI response of a calculation through reconciliation.
// @Tags			Verbas
// @Accept			json
// @Produce		json
// @Param			request	body		object{calculationId:string}	true	"Calculation"
// @Success		200		{object}	response.ReprocessResponse
// @Failure		400		{object}	response.ErrorResponse
// @Failure		404		{object}	response.ErrorResponse
// @Router			/reprocess-ai-response [post]
func (app *application) handleReprocessAIResponse(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if req.CalculationID == "" {
		writeJSONError(w, http.StatusBadRequest, msgMissingCalculation)
		return
	}

	_, err := app.pipeline.Reprocess(r.Context(), req.CalculationID)
	if err != nil {
		var e *rescisao.Error
		if !errors.As(err, &e) {
			app.writePipelineError(w, msgPersistenceFailed, err)
			return
		}
		switch e.Kind {
		case rescisao.KindNotFound:
			writeJSONErrorDetails(w, http.StatusNotFound, msgNotFound, e.Details)
		case rescisao.KindExtractionFailed:
			writeJSONError(w, http.StatusBadRequest, msgExtractionFailed)
		case rescisao.KindInvalidType:
			writeJSONError(w, http.StatusBadRequest, msgInvalidType)
		case rescisao.KindInvalidJSON:
			writeJSONErrorDetails(w, http.StatusBadRequest, msgInvalidJSON, e.Details)
		default:
			app.writePipelineError(w, msgPersistenceFailed, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, &response.ReprocessResponse{
		Message:       msgReprocessed,
		CalculationID: req.CalculationID,
	})
}

// @Summary		Clear calculation entries
// @Description	Deletes every provento and desconto of a calculation and resets its stored AI response.
// @Tags			Verbas
// @Accept			json
// @Produce		json
// @Param			request	body		object{calculationId:string}	true	"Calculation"
// @Success		200		{object}	response.MessageResponse
// @Failure		400		{object}	response.ErrorResponse
// @Failure		500		{object}	response.ErrorResponse
// @Router			/clear-calculation-entries [post]
func (app *application) handleClearCalculationEntries(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if req.CalculationID == "" {
		writeJSONError(w, http.StatusBadRequest, msgMissingCalculation)
		return
	}

	if err := app.pipeline.Clear(r.Context(), req.CalculationID); err != nil {
		app.writePipelineError(w, msgClearFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, &response.MessageResponse{Message: msgCleared})
}

type submitAIResponseRequest struct {
	AIResponse string `json:"aiResponse"`
}

// @Summary		Submit AI response
// @Description	Stores a fresh AI answer for a calculation and, when it holds JSON, normalizes and reconciles its verbas.
// @Tags			Calculations
// @Accept			json
// @Produce		json
// @Param			id		path		string								true	"Calculation ID"
// @Param			request	body		object{aiResponse:string}			true	"Raw AI answer"
// @Success		200		{object}	response.SubmitResponse
// @Failure		400		{object}	response.ErrorResponse
// @Failure		404		{object}	response.ErrorResponse
// @Router			/calculations/{id}/ai-response [post]
func (app *application) handleSubmitAIResponse(w http.ResponseWriter, r *http.Request) {
	calculationID := chi.URLParam(r, "id")

	var req submitAIResponseRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if strings.TrimSpace(req.AIResponse) == "" {
		writeJSONError(w, http.StatusBadRequest, msgMissingAIResponse)
		return
	}

	res, err := app.pipeline.Submit(r.Context(), calculationID, req.AIResponse)
	if err != nil {
		var e *rescisao.Error
		if !errors.As(err, &e) {
			app.writePipelineError(w, msgPersistenceFailed, err)
			return
		}
		switch e.Kind {
		case rescisao.KindParseFailed:
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   msgUnparsableAIResponse,
				"details": e.Details,
				"snippet": e.Snippet,
			})
		case rescisao.KindNotFound:
			writeJSONError(w, http.StatusNotFound, msgNotFound)
		case rescisao.KindMissingInput:
			writeJSONError(w, http.StatusBadRequest, msgMissingAIResponse)
		default:
			app.writePipelineError(w, msgPersistenceFailed, err)
		}
		return
	}

	message := msgVerbasStored
	if res.Outcome.Skipped {
		message = msgNoVerbas
	}
	writeJSON(w, http.StatusOK, &response.SubmitResponse{
		Message:       message,
		CalculationID: calculationID,
		Format:        res.Format,
	})
}

type GetVerbasResponse = response.APIResponse[report.Verbas]

func (app *application) loadVerbas(r *http.Request) (report.Verbas, error) {
	ctx := r.Context()
	calculationID := chi.URLParam(r, "id")

	proventos, err := app.store.Verbas.ListProventos(ctx, calculationID)
	if err != nil {
		return report.Verbas{}, err
	}
	descontos, err := app.store.Verbas.ListDescontos(ctx, calculationID)
	if err != nil {
		return report.Verbas{}, err
	}
	return report.New(calculationID, proventos, descontos), nil
}

// @Summary		List verbas
// @Description	Returns the stored proventos and descontos of a calculation with totals.
// @Tags			Calculations
// @Produce		json
// @Param			id	path		string				true	"Calculation ID"
// @Success		200	{object}	GetVerbasResponse
// @Failure		500	{object}	response.ErrorResponse
// @Router			/calculations/{id}/verbas [get]
func (app *application) handleGetVerbas(w http.ResponseWriter, r *http.Request) {
	data, err := app.loadVerbas(r)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list verbas: "+err.Error())
		return
	}

	response := &GetVerbasResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved verbas",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Export verbas as CSV
// @Tags			Calculations
// @Produce		text/csv
// @Param			id	path	string	true	"Calculation ID"
// @Router			/calculations/{id}/verbas.csv [get]
func (app *application) handleExportVerbasCSV(w http.ResponseWriter, r *http.Request) {
	data, err := app.loadVerbas(r)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list verbas: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="verbas-`+data.CalculationID+`.csv"`)
	if err := data.WriteCSV(w); err != nil {
		app.logger.Error("API", "CSV export of calculation %s failed: %v", data.CalculationID, err)
	}
}
