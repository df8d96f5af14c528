package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus describes one provider credential for status output.
type KeyStatus struct {
	Name     string       `json:"name"`
	Source   APIKeySource `json:"source"`
	EnvVar   string       `json:"env_var,omitempty"` // set when Source is env
	IsSet    bool         `json:"is_set"`
	Required bool         `json:"required"` // the configured provider cannot run without it
	Masked   string       `json:"masked,omitempty"` // e.g., "cq1...abc"
}

// CheckAPIKeys reports the credentials the configured provider may use.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	finnhub := keyStatus("Finnhub API Key", cfg.Provider.FinnhubKey,
		EnvPrefix+"_PROVIDER_FINNHUB_KEY", "FINNHUB_API_KEY")
	finnhub.Required = cfg.Provider.Name == "finnhub"
	return []KeyStatus{finnhub}
}

// MissingRequired returns the names of required keys that are not set.
func MissingRequired(keys []KeyStatus) []string {
	var missing []string
	for _, k := range keys {
		if k.Required && !k.IsSet {
			missing = append(missing, k.Name)
		}
	}
	return missing
}

func keyStatus(name, value string, envVars ...string) KeyStatus {
	ks := KeyStatus{Name: name, Source: KeySourceNone}
	if value == "" {
		return ks
	}

	ks.IsSet = true
	ks.Masked = maskKey(value)
	ks.Source = KeySourceConfig
	for _, env := range envVars {
		if os.Getenv(env) == value {
			ks.Source = KeySourceEnv
			ks.EnvVar = env
			break
		}
	}
	return ks
}

// maskKey keeps the first and last three characters of keys longer than eight.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
