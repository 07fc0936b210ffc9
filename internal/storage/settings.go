package storage

import (
	"encoding/json"
	"fmt"

	"github.com/starford/devmemory/internal/kvstore"
	"github.com/starford/devmemory/internal/models"
)

// LoadSettings reads the persisted settings, falling back to defaults when
// nothing usable is stored.
func LoadSettings(kv kvstore.Store) models.AppSettings {
	data, err := kv.Get(kvstore.KeySettings)
	if err != nil {
		return models.DefaultSettings()
	}
	s := models.DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return models.DefaultSettings()
	}
	if s.APIURL == "" {
		s.APIURL = models.DefaultAPIURL
	}
	if s.Validate() != nil {
		return models.DefaultSettings()
	}
	return s
}

// SaveSettings validates and persists s.
func SaveSettings(kv kvstore.Store, s models.AppSettings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("storage: invalid settings: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("storage: encode settings: %w", err)
	}
	if err := kv.Set(kvstore.KeySettings, data); err != nil {
		return fmt.Errorf("storage: save settings: %w", err)
	}
	return nil
}
