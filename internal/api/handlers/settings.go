package handlers

import (
	"net/http"
	"strconv"

	"github.com/video-stream/captionsync/internal/config"
	"github.com/video-stream/captionsync/internal/db"
)

// settingsKeys defines which keys are allowed and their display metadata
var settingsKeys = []SettingDef{
	{Key: config.KeyOverlapEps, Label: "Overlap Epsilon (s)", Group: "dedupe", Placeholder: "0.05"},
	{Key: config.KeyMaxJoinGap, Label: "Max Join Gap (s)", Group: "dedupe", Placeholder: "0.25"},
	{Key: config.KeyMinRepeatGap, Label: "Min Repeat Gap (s)", Group: "dedupe", Placeholder: "1.5"},
	{Key: config.KeyMinSimilarity, Label: "Min Similarity", Group: "dedupe", Placeholder: "0.92", Max: 1},
	{Key: config.KeyAlignTolerance, Label: "Alignment Tolerance (s)", Group: "align", Placeholder: "0.5"},
	{Key: config.KeySyncTolerance, Label: "Sync Tolerance (s)", Group: "sync", Placeholder: "0.1"},
	{Key: config.KeySyncTickMS, Label: "Sync Tick (ms)", Group: "sync", Placeholder: "50", Integer: true},
}

type SettingDef struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Group       string  `json:"group"`
	Placeholder string  `json:"placeholder"`
	Integer     bool    `json:"integer,omitempty"`
	Max         float64 `json:"max,omitempty"`
}

// valid reports whether value parses for this setting.
func (d SettingDef) valid(value string) bool {
	if d.Integer {
		n, err := strconv.Atoi(value)
		return err == nil && n > 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return false
	}
	return d.Max == 0 || f <= d.Max
}

type SettingsHandler struct {
	database *db.Database
	base     config.Engine
}

func NewSettingsHandler(database *db.Database, base config.Engine) *SettingsHandler {
	return &SettingsHandler{database: database, base: base}
}

type settingResponse struct {
	SettingDef
	Value    string `json:"value"`
	HasValue bool   `json:"has_value"`
}

// GetSettings returns stored overrides and the effective engine tunables
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.database.GetAllSettings()
	if err != nil {
		jsonError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	result := make([]settingResponse, 0, len(settingsKeys))
	for _, def := range settingsKeys {
		val := all[def.Key]
		result = append(result, settingResponse{
			SettingDef: def,
			Value:      val,
			HasValue:   val != "",
		})
	}

	jsonResponse(w, map[string]interface{}{
		"settings":  result,
		"effective": config.EngineSettings(h.base, h.database),
	}, http.StatusOK)
}

// UpdateSettings saves settings from the request body. An empty value
// removes the override.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if !decodeJSON(w, r, &updates) {
		return
	}

	defs := make(map[string]SettingDef, len(settingsKeys))
	for _, def := range settingsKeys {
		defs[def.Key] = def
	}

	// validate everything before writing anything
	for key, value := range updates {
		def, ok := defs[key]
		if !ok {
			jsonError(w, "unknown setting: "+key, http.StatusBadRequest)
			return
		}
		if value != "" && !def.valid(value) {
			jsonError(w, "invalid value for "+key, http.StatusBadRequest)
			return
		}
	}

	for key, value := range updates {
		var err error
		if value == "" {
			err = h.database.DeleteSetting(key)
		} else {
			err = h.database.SetSetting(key, value)
		}
		if err != nil {
			jsonError(w, "failed to save setting: "+key, http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
