package authclient

import (
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// FileConfig is the TOML backed configuration for the client. It satisfies
// Config so the whole client can be wired from a single file.
type FileConfig struct {
	BaseURL         string `toml:"base_url"`
	CredentialsPath string `toml:"credentials_path"`
	SettleDelayMS   int    `toml:"settle_delay_ms"`
}

func (c FileConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c FileConfig) GetCredentialsPath() string {
	return c.CredentialsPath
}

func (c FileConfig) GetSettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

func (c FileConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.CredentialsPath, validation.Required),
		validation.Field(&c.SettleDelayMS, validation.Min(0)),
	)
}

// LoadConfig reads and validates a TOML configuration file.
func LoadConfig(path string) (FileConfig, error) {
	var config FileConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return FileConfig{}, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read config file")
	}

	if err := config.Validate(); err != nil {
		return FileConfig{}, goerrors.Wrap(
			err,
			goerrors.CategoryValidation,
			"invalid configuration",
		).WithCode(goerrors.CodeBadRequest)
	}

	return config, nil
}

// NewFromConfig wires a session store over a file credential slot at the
// configured path. Extra options are applied after the config derived ones
// so callers can override them.
func NewFromConfig(config Config, opts ...SessionStoreOption) (*SessionStore, error) {
	if config == nil {
		return nil, goerrors.New(
			"config is required",
			goerrors.CategoryBadInput,
		).WithCode(goerrors.CodeBadRequest)
	}

	store := NewFileCredentialStore(config.GetCredentialsPath())
	all := append([]SessionStoreOption{WithSettleDelay(config.GetSettleDelay())}, opts...)

	return NewSessionStore(store, all...), nil
}
