package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const defaultRequestTimeout = 10 * time.Second

const (
	defaultLoginPath    = "/api/v1/accounts/login"
	defaultRegisterPath = "/api/v1/accounts/register"
)

// AccountClient obtains bearer credentials from the accounts service. The
// returned string is the raw credential, ready for SessionStore.Login.
type AccountClient interface {
	Login(ctx context.Context, payload LoginPayload) (string, error)
	Register(ctx context.Context, payload RegisterPayload) (string, error)
}

// HTTPClientConfig configures the HTTP account client. Zero values fall
// back to the upstream defaults.
type HTTPClientConfig struct {
	BaseURL      string
	LoginPath    string
	RegisterPath string
	HTTPClient   *http.Client
	Logger       Logger
}

type httpAccountClient struct {
	baseURL      string
	loginPath    string
	registerPath string
	client       *http.Client
	logger       Logger
}

// NewHTTPAccountClient builds an AccountClient over net/http.
func NewHTTPAccountClient(config HTTPClientConfig) (AccountClient, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, goerrors.New(
			"account client requires a base URL",
			goerrors.CategoryBadInput,
		).WithCode(goerrors.CodeBadRequest)
	}

	c := &httpAccountClient{
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		loginPath:    config.LoginPath,
		registerPath: config.RegisterPath,
		client:       config.HTTPClient,
		logger:       config.Logger,
	}

	if c.loginPath == "" {
		c.loginPath = defaultLoginPath
	}
	if c.registerPath == "" {
		c.registerPath = defaultRegisterPath
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: defaultRequestTimeout}
	}
	if c.logger == nil {
		c.logger = defLogger{}
	}

	return c, nil
}

// tokenResponse is the upstream token envelope.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// upstreamErrorBody is the upstream error envelope.
type upstreamErrorBody struct {
	Detail string `json:"detail"`
}

// Login exchanges an email and password for a credential. The upstream
// endpoint is form encoded and puts the email in the username field.
func (c *httpAccountClient) Login(ctx context.Context, payload LoginPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", goerrors.Wrap(
			err,
			goerrors.CategoryValidation,
			"invalid login payload",
		).WithCode(goerrors.CodeBadRequest)
	}

	form := url.Values{}
	form.Set("username", payload.Email)
	form.Set("password", payload.Password)

	endpoint := c.baseURL + c.loginPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("POST %s", c.loginPath)

	return c.requestToken(req, http.StatusOK)
}

// Register creates a new account and returns the credential the upstream
// mints for it.
func (c *httpAccountClient) Register(ctx context.Context, payload RegisterPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", goerrors.Wrap(
			err,
			goerrors.CategoryValidation,
			"invalid register payload",
		).WithCode(goerrors.CodeBadRequest)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode register payload")
	}

	endpoint := c.baseURL + c.registerPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build register request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("POST %s", c.registerPath)

	return c.requestToken(req, http.StatusCreated)
}

func (c *httpAccountClient) requestToken(req *http.Request, wantStatus int) (string, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return "", goerrors.Wrap(
			err,
			goerrors.CategoryOperation,
			"accounts service request failed",
		).WithTextCode(TextCodeUpstreamFailure)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read accounts response")
	}

	if resp.StatusCode != wantStatus {
		return "", upstreamError(resp.StatusCode, body)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", goerrors.Wrap(
			err,
			goerrors.CategoryOperation,
			"failed to decode token response",
		).WithTextCode(TextCodeUpstreamFailure)
	}

	if token.AccessToken == "" {
		return "", goerrors.New(
			"token response missing access_token",
			goerrors.CategoryOperation,
		).WithTextCode(TextCodeUpstreamFailure)
	}

	return token.AccessToken, nil
}

// upstreamError maps an unexpected upstream status to a rich error carrying
// the response detail when the body provides one.
func upstreamError(status int, body []byte) error {
	category := goerrors.CategoryOperation
	code := goerrors.CodeInternal

	switch {
	case status == http.StatusUnauthorized:
		category = goerrors.CategoryAuth
		code = goerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		category = goerrors.CategoryAuthz
		code = goerrors.CodeForbidden
	case status == http.StatusConflict:
		category = goerrors.CategoryConflict
		code = goerrors.CodeConflict
	case status == http.StatusNotFound:
		category = goerrors.CategoryNotFound
		code = goerrors.CodeNotFound
	case status == http.StatusUnprocessableEntity:
		category = goerrors.CategoryValidation
		code = goerrors.CodeBadRequest
	case status >= 400 && status < 500:
		category = goerrors.CategoryBadInput
		code = goerrors.CodeBadRequest
	}

	return goerrors.New(upstreamMessage(body), category).
		WithTextCode(TextCodeUpstreamFailure).
		WithCode(code).
		WithMetadata(map[string]any{"status": status})
}

// upstreamMessage pulls the human readable detail out of an error body,
// falling back to the raw body and then to a generic message.
func upstreamMessage(body []byte) string {
	var parsed upstreamErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Detail) != "" {
		return strings.TrimSpace(parsed.Detail)
	}

	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}

	return "accounts service request failed"
}
