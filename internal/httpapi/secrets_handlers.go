package httpapi

import (
	"net/http"
	"sync/atomic"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setGeocodeKeyReq struct {
	Key string `json:"key" validate:"required"`
}

// SetGeocodeKey stores the key in the OS keyring and makes it live.
func (h SecretsHandler) SetGeocodeKey(w http.ResponseWriter, r *http.Request) {
	var req setGeocodeKeyReq
	if !decodeValid(w, r, &req) {
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetGeocodeKey(secrets.GeocodeKeyringAccount(cfg), req.Key); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_failed", "failed to store key: "+err.Error())
		return
	}
	cfg.Geocode.APIKey = req.Key
	h.CfgVal.Store(cfg)
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteGeocodeKey(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.DeleteGeocodeKey(secrets.GeocodeKeyringAccount(cfg)); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_failed", "failed to delete key: "+err.Error())
		return
	}
	cfg.Geocode.APIKey = ""
	h.CfgVal.Store(cfg)
	w.WriteHeader(http.StatusNoContent)
}
