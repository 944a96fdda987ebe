package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cardiac-assistant/internal/session"
	"cardiac-assistant/pkg"
)

// Alert texts shown by the login form. The transient alert auto-dismisses;
// how is up to the alert handle.
const (
	GenericLoginError = "Erreur de connexion"
	ServerUnreachable = "Erreur de connexion au serveur"
)

// Client calls the remote login endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a login client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Login posts the credentials and role to /api/login. The response body is
// decoded whatever the status code: a business failure arrives as a decoded
// response with Success false, only transport or decoding problems return
// an error.
func (c *Client) Login(ctx context.Context, req pkg.LoginRequest) (*pkg.LoginResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("contact login server: %w", err)
	}
	defer resp.Body.Close()
	var out pkg.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &out, nil
}

// Form is the login form controller. Exactly one role is active at all
// times, defaulting to patient; selecting one deselects the other. The
// alert and navigation handles are injected rather than taken from page
// globals.
type Form struct {
	store    *session.Store
	client   *Client
	alert    func(message, kind string)
	navigate func(path string)
	role     pkg.Role
}

// NewForm wires the form controller to its collaborators.
func NewForm(store *session.Store, client *Client, alert func(message, kind string), navigate func(path string)) *Form {
	return &Form{
		store:    store,
		client:   client,
		alert:    alert,
		navigate: navigate,
		role:     pkg.RolePatient,
	}
}

// SelectRole activates the given role tab, deselecting the other.
func (f *Form) SelectRole(r pkg.Role) { f.role = r }

// Role returns the currently selected role.
func (f *Form) Role() pkg.Role { return f.role }

// Submit issues the login call with the entered credentials and the active
// role. On success the returned user record is persisted and navigation
// goes to the server-specified target. On a failure flag or transport error
// a transient alert shows and neither storage nor navigation is touched.
func (f *Form) Submit(ctx context.Context, email, password string) {
	resp, err := f.client.Login(ctx, pkg.LoginRequest{
		Email:    email,
		Password: password,
		Role:     f.role,
	})
	if err != nil {
		f.alert(ServerUnreachable, "error")
		return
	}
	if !resp.Success {
		message := resp.Message
		if message == "" {
			message = GenericLoginError
		}
		f.alert(message, "error")
		return
	}
	if resp.User != nil {
		if err := f.store.SaveUser(*resp.User); err != nil {
			f.alert(ServerUnreachable, "error")
			return
		}
	}
	f.navigate(resp.Redirect)
}
