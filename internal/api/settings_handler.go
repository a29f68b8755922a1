package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "chatbridge/internal/errors"
	"chatbridge/internal/interfaces"
)

// SettingsHandler exposes the application settings.
type SettingsHandler struct {
	configs interfaces.ConfigService
}

func NewSettingsHandler(configs interfaces.ConfigService) *SettingsHandler {
	return &SettingsHandler{configs: configs}
}

// GetSettings godoc
// @Summary      Get settings
// @Description  Returns the settings the next job will run with.
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  SettingsResponse
// @Router       /v1/settings [get]
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg := h.configs.Get(r.Context())
	respondWithJSON(w, http.StatusOK, SettingsResponse{EnvFile: cfg.EnvFile, Settings: cfg.Values()})
}

// UpdateSettings godoc
// @Summary      Update settings
// @Description  Validates the given settings, saves them to the .env file and uses them for every job started afterwards.
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        settings  body      UpdateSettingsRequest  true  "Settings to change"
// @Success      200       {object}  SettingsResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /v1/settings [put]
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload: %v", app_errors.ErrValidation, err))
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	cfg, err := h.configs.Update(r.Context(), req.Settings)
	if err != nil {
		respondWithError(w, err)
		return
	}
	slog.Info("Settings updated via API", "keys", len(req.Settings))
	respondWithJSON(w, http.StatusOK, SettingsResponse{EnvFile: cfg.EnvFile, Settings: cfg.Values()})
}
