package handler

import (
	"net/http"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

// CatalogHandler отдает статические справочники экранов Agents/Tools/Workflow/Life
type CatalogHandler struct {
	model string
}

func NewCatalogHandler(model string) *CatalogHandler {
	return &CatalogHandler{model: model}
}

func (h *CatalogHandler) Agents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.AgentProfiles(h.model))
}

func (h *CatalogHandler) Tools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Tools)
}

func (h *CatalogHandler) Workflow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Stages)
}

func (h *CatalogHandler) Personas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Personas)
}

func (h *CatalogHandler) FocusAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.FocusAreas)
}

func (h *CatalogHandler) LifeAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.LifeAgents)
}
