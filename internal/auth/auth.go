// Package auth handles provider authentication. GitHub Copilot uses the
// device-code flow; the resulting token is the only state persisted.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"golang.org/x/oauth2"
)

// ProviderGitHubCopilot is the only provider currently supported.
const ProviderGitHubCopilot = "github-copilot"

// githubClientID is GitHub's public device-flow client for Copilot
// integrations. Device-flow client ids are not secrets.
const githubClientID = "Iv1.b507a08c87ecfe98"

// githubEndpoint holds GitHub's device-flow endpoints.
var githubEndpoint = oauth2.Endpoint{
	DeviceAuthURL: "https://github.com/login/device/code",
	TokenURL:      "https://github.com/login/oauth/access_token",
}

// userAPIURL is probed by Check to validate a stored token.
const userAPIURL = "https://api.github.com/user"

// checkTimeout bounds the token validation request.
const checkTimeout = 10 * time.Second

// hostEntry is one provider's persisted credentials.
type hostEntry struct {
	OAuthToken string `json:"oauth_token"`
	User       string `json:"user,omitempty"`
}

// Store persists provider tokens in a hosts file. The file is created
// with owner-only permissions; token contents are opaque.
type Store struct {
	path string
}

// DefaultStorePath returns ~/.config/vcspilot/hosts.json.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, ".config", "vcspilot", "hosts.json"), nil
}

// NewStore builds a Store at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Token returns the saved token for provider, or an error when none exists.
func (s *Store) Token(provider string) (string, error) {
	hosts, err := s.read()
	if err != nil {
		return "", err
	}
	entry, ok := hosts[provider]
	if !ok || entry.OAuthToken == "" {
		return "", errors.Newf("no stored token for %s, run `vcspilot auth %s`", provider, provider)
	}
	return entry.OAuthToken, nil
}

// Save writes the provider token, preserving other entries.
func (s *Store) Save(provider, token, user string) error {
	hosts, err := s.read()
	if err != nil {
		return err
	}
	hosts[provider] = hostEntry{OAuthToken: token, User: user}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(s.path))
	}
	data, err := json.MarshalIndent(hosts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0o600)
}

func (s *Store) read() (map[string]hostEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]hostEntry{}, nil
		}
		return nil, err
	}
	var hosts map[string]hostEntry
	if err := json.Unmarshal(data, &hosts); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", s.path)
	}
	if hosts == nil {
		hosts = map[string]hostEntry{}
	}
	return hosts, nil
}

// Authenticator runs the device-code flow and token checks.
type Authenticator struct {
	store  *Store
	out    io.Writer
	client *http.Client
	oauth  oauth2.Config

	// userURL is swappable for tests.
	userURL string
}

// New builds an Authenticator writing user instructions to out.
func New(store *Store, out io.Writer) *Authenticator {
	if out == nil {
		out = os.Stdout
	}
	return &Authenticator{
		store:  store,
		out:    out,
		client: &http.Client{Timeout: checkTimeout},
		oauth: oauth2.Config{
			ClientID: githubClientID,
			Endpoint: githubEndpoint,
			Scopes:   []string{"read:user"},
		},
		userURL: userAPIURL,
	}
}

// Login runs the GitHub device-code flow: show a one-time code, wait for
// the user to approve it in a browser, then persist the token.
func (a *Authenticator) Login(ctx context.Context) error {
	da, err := a.oauth.DeviceAuth(ctx)
	if err != nil {
		return errors.Wrap(err, "requesting device code")
	}

	color.New(color.Bold).Fprintf(a.out, "First, copy your one-time code: %s\n", da.UserCode)
	fmt.Fprintf(a.out, "Then open %s and enter it.\n", da.VerificationURI)
	fmt.Fprintln(a.out, "Waiting for approval...")

	token, err := a.oauth.DeviceAccessToken(ctx, da)
	if err != nil {
		return errors.Wrap(err, "waiting for device authorization")
	}

	user, err := a.lookupUser(ctx, token.AccessToken)
	if err != nil {
		// The token is good even when the username probe fails.
		user = ""
	}

	if err := a.store.Save(ProviderGitHubCopilot, token.AccessToken, user); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "authenticated as %s, token saved to %s\n", displayUser(user), a.store.path)
	return nil
}

// Check validates the stored token against the provider and reports the
// authenticated user.
func (a *Authenticator) Check(ctx context.Context) error {
	token, err := a.store.Token(ProviderGitHubCopilot)
	if err != nil {
		return err
	}
	user, err := a.lookupUser(ctx, token)
	if err != nil {
		return errors.Wrap(err, "stored token is not valid")
	}
	color.New(color.FgGreen).Fprintf(a.out, "token valid, authenticated as %s\n", displayUser(user))
	return nil
}

func (a *Authenticator) lookupUser(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("provider returned %s", resp.Status)
	}
	var body struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Login, nil
}

func displayUser(user string) string {
	if user == "" {
		return "an unknown user"
	}
	return user
}
