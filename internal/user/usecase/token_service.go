package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mailsub-backend/internal/scan"
	userdomain "mailsub-backend/internal/user/domain"
	userrepo "mailsub-backend/internal/user/repository"
	"mailsub-backend/pkg/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultMicrosoftTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"

// A token is refreshed when it expires within this window, so a pass
// never starts with a credential about to die under it.
const refreshWindow = 5 * time.Minute

// TokenService resolves valid access tokens for a user's mail
// accounts, refreshing and persisting them when near expiry. It is the
// credential collaborator of the sync engine.
type TokenService struct {
	users             userrepo.UserRepository
	cfg               *config.Config
	microsoftTokenURL string
	httpClient        *http.Client
}

func NewTokenService(users userrepo.UserRepository, cfg *config.Config) *TokenService {
	return &TokenService{
		users:             users,
		cfg:               cfg,
		microsoftTokenURL: defaultMicrosoftTokenURL,
		httpClient:        http.DefaultClient,
	}
}

// NewTokenServiceWithMicrosoftURL is used by tests to point the
// Microsoft refresh at a local server.
func NewTokenServiceWithMicrosoftURL(users userrepo.UserRepository, cfg *config.Config, tokenURL string, client *http.Client) *TokenService {
	s := NewTokenService(users, cfg)
	s.microsoftTokenURL = tokenURL
	if client != nil {
		s.httpClient = client
	}
	return s
}

// ValidAccessToken implements scan.CredentialProvider.
func (s *TokenService) ValidAccessToken(ctx context.Context, user *userdomain.User, accountType string) (string, error) {
	switch accountType {
	case userdomain.AccountGmail:
		if !needsRefresh(user.GmailTokenExpiry) {
			return user.GmailAccessToken, nil
		}
		return s.refreshGmail(ctx, user)
	case userdomain.AccountOutlook:
		if !needsRefresh(user.OutlookTokenExpiry) {
			return user.OutlookAccessToken, nil
		}
		return s.refreshOutlook(ctx, user)
	default:
		return "", fmt.Errorf("unknown account type: %s", accountType)
	}
}

func needsRefresh(expiry *time.Time) bool {
	return expiry == nil || time.Now().After(expiry.Add(-refreshWindow))
}

func (s *TokenService) refreshGmail(ctx context.Context, user *userdomain.User) (string, error) {
	if user.GmailRefreshToken == "" {
		return "", &scan.AuthError{Provider: userdomain.AccountGmail, Err: fmt.Errorf("no refresh token on file")}
	}

	conf := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
	}
	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: user.GmailRefreshToken})
	token, err := src.Token()
	if err != nil {
		return "", &scan.AuthError{Provider: userdomain.AccountGmail, Err: err}
	}

	user.GmailAccessToken = token.AccessToken
	expiry := token.Expiry
	user.GmailTokenExpiry = &expiry
	if token.RefreshToken != "" {
		user.GmailRefreshToken = token.RefreshToken
	}
	if err := s.users.Update(user); err != nil {
		return "", err
	}
	log.Printf("[Token] refreshed gmail token for user %s", user.ID)
	return token.AccessToken, nil
}

type microsoftTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (s *TokenService) refreshOutlook(ctx context.Context, user *userdomain.User) (string, error) {
	if user.OutlookRefreshToken == "" {
		return "", &scan.AuthError{Provider: userdomain.AccountOutlook, Err: fmt.Errorf("no refresh token on file")}
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {user.OutlookRefreshToken},
		"client_id":     {s.cfg.MicrosoftClientID},
		"client_secret": {s.cfg.MicrosoftClientSecret},
		"scope":         {"Mail.Read Mail.Send offline_access"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.microsoftTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &scan.AuthError{Provider: userdomain.AccountOutlook, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &scan.AuthError{Provider: userdomain.AccountOutlook, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &scan.AuthError{Provider: userdomain.AccountOutlook, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &scan.AuthError{Provider: userdomain.AccountOutlook,
			Err: fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, string(body))}
	}

	var parsed microsoftTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.AccessToken == "" {
		return "", &scan.AuthError{Provider: userdomain.AccountOutlook, Err: fmt.Errorf("malformed token response")}
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	expiry := time.Now().Add(time.Duration(expiresIn) * time.Second)

	user.OutlookAccessToken = parsed.AccessToken
	user.OutlookTokenExpiry = &expiry
	if parsed.RefreshToken != "" {
		user.OutlookRefreshToken = parsed.RefreshToken
	}
	if err := s.users.Update(user); err != nil {
		return "", err
	}
	log.Printf("[Token] refreshed outlook token for user %s", user.ID)
	return parsed.AccessToken, nil
}
