package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/devconnect/devconnect/internal/models"
)

// FieldError is one structured validation message from the server.
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param,omitempty"`
}

// APIError is the normalized failure value for every non-2xx response,
// decoupled from any transport library's exception shape.
type APIError struct {
	Message    string
	StatusCode int
	Errors     []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// API is the Profile API capability the dispatcher operates through.
type API interface {
	CurrentProfile(ctx context.Context) (*models.Profile, error)
	ProfileByUser(ctx context.Context, userID string) (*models.Profile, error)
	Profiles(ctx context.Context) ([]models.Profile, error)
	SaveProfile(ctx context.Context, form models.ProfileForm) (*models.Profile, error)
	AddExperience(ctx context.Context, form models.ExperienceForm) (*models.Profile, error)
	AddEducation(ctx context.Context, form models.EducationForm) (*models.Profile, error)
	RemoveExperience(ctx context.Context, entryID string) (*models.Profile, error)
	RemoveEducation(ctx context.Context, entryID string) (*models.Profile, error)
	DeleteAccount(ctx context.Context) error
}

// HTTPClient implements API over the profile service's JSON surface with a
// bearer token attached to owner-scoped calls.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    http.DefaultClient,
	}
}

func (c *HTTPClient) CurrentProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ProfileByUser(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile/user/"+userID, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Profiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *HTTPClient) SaveProfile(ctx context.Context, form models.ProfileForm) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPost, "/api/profile", form, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) AddExperience(ctx context.Context, form models.ExperienceForm) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile/experience", form, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) AddEducation(ctx context.Context, form models.EducationForm) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile/education", form, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) RemoveExperience(ctx context.Context, entryID string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodDelete, "/api/profile/experience/"+entryID, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) RemoveEducation(ctx context.Context, entryID string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodDelete, "/api/profile/education/"+entryID, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/profile", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalizeError folds any failure response into an APIError, picking up the
// structured validation list or plain message when the body carries one.
func normalizeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Message:    http.StatusText(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	var body struct {
		Msg    string       `json:"msg"`
		Errors []FieldError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Msg != "" {
			apiErr.Message = body.Msg
		}
		apiErr.Errors = body.Errors
	}
	return apiErr
}
