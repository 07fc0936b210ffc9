package models

import (
	"fmt"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StorageMode selects where notes are persisted.
type StorageMode string

// Storage modes.
const (
	StorageLocal StorageMode = "LOCAL"
	StorageAPI   StorageMode = "API"
)

// DefaultAPIURL is the collection root of a locally running note service.
const DefaultAPIURL = "http://localhost:8080/api/notes"

// AppSettings is the user-facing persistence configuration.
type AppSettings struct {
	StorageMode StorageMode `json:"storageMode"`
	APIURL      string      `json:"apiUrl"`
}

// DefaultSettings returns the settings used when nothing has been saved yet.
func DefaultSettings() AppSettings {
	return AppSettings{
		StorageMode: StorageLocal,
		APIURL:      DefaultAPIURL,
	}
}

// Validate checks the mode and, in API mode, the collection URL.
func (s AppSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.StorageMode, validation.Required, validation.In(StorageLocal, StorageAPI)),
		validation.Field(&s.APIURL,
			validation.When(s.StorageMode == StorageAPI, validation.Required, validation.By(httpURL)),
		),
	)
}

func httpURL(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL")
	}
	return nil
}
