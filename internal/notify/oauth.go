package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

var ErrNoToken = errors.New("notify: no stored calendar token")

// OAuth runs the installed-app authorization flow for the calendar backend
// and persists the resulting token.
type OAuth struct {
	Config    *oauth2.Config
	TokenFile string
	In        io.Reader
	Out       io.Writer
}

func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarEventsScope, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// Client returns an HTTP client backed by the stored token. ErrNoToken is
// returned when no authorization has happened yet.
func (o *OAuth) Client(ctx context.Context) (*http.Client, error) {
	tok, err := LoadToken(o.TokenFile)
	if err != nil {
		return nil, err
	}
	return o.Config.Client(ctx, tok), nil
}

// Authorize prints the consent URL, reads the authorization code from In
// and stores the exchanged token.
func (o *OAuth) Authorize(ctx context.Context) (*http.Client, error) {
	if o.Config == nil {
		return nil, fmt.Errorf("%w: missing oauth config", ErrNotAuthorized)
	}
	url := o.Config.AuthCodeURL("smarttodo", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	out := o.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintf(out, "Open the following URL and paste the authorization code:\n%s\n> ", url)

	in := o.In
	if in == nil {
		in = os.Stdin
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", ErrPermissionDenied)
	}

	tok, err := o.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := SaveToken(o.TokenFile, tok); err != nil {
		return nil, err
	}
	return o.Config.Client(ctx, tok), nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("open token: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
