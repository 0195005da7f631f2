package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/commercesync"
	rewarddto "github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/dto/reward"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/scheduler"
)

// RewardHandler exposes the engine's inbound triggers over HTTP. The merchant
// id comes from the path; in production the gateway authenticates it.
type RewardHandler struct {
	Rewards   usecase.RewardUsecase
	Sync      commercesync.SyncUsecase
	Scheduler scheduler.SchedulerUsecase
}

func NewRewardHandler(rewards usecase.RewardUsecase, syncUC commercesync.SyncUsecase, sched scheduler.SchedulerUsecase) *RewardHandler {
	return &RewardHandler{Rewards: rewards, Sync: syncUC, Scheduler: sched}
}

func (h *RewardHandler) Routes(r chi.Router) {
	r.Route("/v1/merchants/{merchantID}", func(r chi.Router) {
		r.Post("/rewards", h.UpsertTemplate)
		r.Get("/rewards", h.ListTemplates)
		r.Get("/rewards/{templateID}", h.GetTemplate)
		r.Get("/rewards/{templateID}/state", h.Evaluate)
		r.Post("/rewards/{templateID}/usage", h.RecordUsage)
		r.Put("/rewards/{templateID}/active", h.SetActive)
		r.Post("/rewards/{templateID}/sync", h.SyncTemplate)
		r.Get("/rewards/{templateID}/sync", h.SyncStatus)
		r.Post("/rewards/sync", h.SyncAll)
		r.Post("/scheduler/tick", h.MerchantTick)
	})
	r.Post("/v1/scheduler/tick", h.Tick)
}

func (h *RewardHandler) UpsertTemplate(w http.ResponseWriter, r *http.Request) {
	var input rewarddto.UpsertTemplateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	input.MerchantID = chi.URLParam(r, "merchantID")

	out, err := h.Rewards.UpsertTemplate(&input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RewardHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	out, err := h.Rewards.ListTemplates(chi.URLParam(r, "merchantID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RewardHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	out, err := h.Rewards.GetTemplate(chi.URLParam(r, "merchantID"), chi.URLParam(r, "templateID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RewardHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	state, err := h.Rewards.Evaluate(chi.URLParam(r, "merchantID"), chi.URLParam(r, "templateID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewarddto.ToStateOutput(state))
}

func (h *RewardHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	err := h.Rewards.RecordUsage(chi.URLParam(r, "merchantID"), chi.URLParam(r, "templateID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *RewardHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	input := rewarddto.SetActiveInput{
		MerchantID: chi.URLParam(r, "merchantID"),
		TemplateID: chi.URLParam(r, "templateID"),
		Active:     body.Active,
	}
	if err := h.Rewards.SetActive(&input); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *RewardHandler) SyncTemplate(w http.ResponseWriter, r *http.Request) {
	ref, err := h.Sync.SyncTemplate(r.Context(), chi.URLParam(r, "merchantID"), chi.URLParam(r, "templateID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (h *RewardHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Sync.ResourceStatus(r.Context(), chi.URLParam(r, "merchantID"), chi.URLParam(r, "templateID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"resource_status": string(status)})
}

func (h *RewardHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.Sync.SyncAllForMerchant(r.Context(), chi.URLParam(r, "merchantID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *RewardHandler) MerchantTick(w http.ResponseWriter, r *http.Request) {
	if err := h.Scheduler.RunMerchantTick(r.Context(), chi.URLParam(r, "merchantID")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *RewardHandler) Tick(w http.ResponseWriter, r *http.Request) {
	if err := h.Scheduler.RunTick(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": vErr.Fields,
		})
	case errors.Is(err, domain.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrRewardNotUsable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case domain.IsTransient(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
