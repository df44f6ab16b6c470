// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package drive

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"

	"github.com/pdiddy/payslip-splitter/pkg/types"
)

// ErrNoCredentials is returned when the OAuth client file is missing.
var ErrNoCredentials = errors.New("drive credentials not found")

// Authorize returns an HTTP client carrying an OAuth token for Drive. The
// token is read from cfg.TokenFile; when absent, or granted for a narrower
// scope than requested, the installed-app flow runs: the consent URL is
// printed to out and the code is read from in. Refreshed tokens are written
// back to the token file.
func Authorize(ctx context.Context, cfg types.DriveConfig, in io.Reader, out io.Writer) (*http.Client, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, cfg.CredentialsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	scope := gdrive.DriveScope
	if cfg.ReadOnly {
		scope = gdrive.DriveReadonlyScope
	}
	conf, err := google.ConfigFromJSON(data, scope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials %s: %w", cfg.CredentialsFile, err)
	}

	tok, granted, err := LoadToken(cfg.TokenFile)
	if err == nil && !covers(granted, scope) {
		slog.Info("cached drive token has a narrower scope, asking for consent again",
			"token", cfg.TokenFile, "granted", granted, "wanted", scope)
		err = errScopeTooNarrow
	}
	if err != nil {
		tok, err = exchange(ctx, conf, in, out)
		if err != nil {
			return nil, err
		}
		granted = scope
		if err := SaveToken(cfg.TokenFile, tok, granted); err != nil {
			return nil, err
		}
	}

	src := &savingSource{
		base:  conf.TokenSource(ctx, tok),
		path:  cfg.TokenFile,
		scope: granted,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

var errScopeTooNarrow = errors.New("token scope too narrow")

// covers reports whether a token granted for granted may be used for wanted.
// Full Drive access covers read-only access; an unknown grant covers nothing.
func covers(granted, wanted string) bool {
	return granted == wanted || (granted == gdrive.DriveScope && wanted == gdrive.DriveReadonlyScope)
}

func exchange(ctx context.Context, conf *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	state := uuid.NewString()
	url := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this link in your browser, authorize access, then paste the code:\n%s\n> ", url)

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading authorization code: %w", err)
		}
		return nil, errors.New("no authorization code entered")
	}
	code := strings.TrimSpace(sc.Text())
	if code == "" {
		return nil, errors.New("no authorization code entered")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}

// cachedToken is the token file layout: the OAuth token plus the scope it
// was granted for.
type cachedToken struct {
	oauth2.Token
	Scope string `json:"scope,omitempty"`
}

// LoadToken reads a cached OAuth token and the scope it was granted for. Token
// files written without a scope return "".
func LoadToken(path string) (*oauth2.Token, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	var c cachedToken
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, "", fmt.Errorf("parsing token %s: %w", path, err)
	}
	return &c.Token, c.Scope, nil
}

// SaveToken writes tok and its scope to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token, scope string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating token dir: %w", err)
		}
	}
	data, err := json.Marshal(cachedToken{Token: *tok, Scope: scope})
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token %s: %w", path, err)
	}
	return nil
}

// savingSource persists every newly refreshed token.
type savingSource struct {
	base  oauth2.TokenSource
	path  string
	scope string

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok, s.scope); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
