// Package solixcloud is a minimal client for the Solix account cloud API:
// session login plus the site/device listing the exporter polls. Only the
// identity and validity attributes are interpreted here; everything else is
// passed through as an opaque payload.
package solixcloud

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var ErrUnauthorized = errors.New("solixcloud: session missing or expired")

const (
	loginPath   = "/passport/login"
	sitesPath   = "/power_service/v1/site/list"
	devicesPath = "/power_service/v1/app/get_relate_and_bind_devices"
)

type Credentials struct {
	Username string
	Password string
	Country  string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	logger     *zap.Logger
	authToken  string
}

func NewClient(creds Credentials, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    regionBaseURL(creds.Country),
		creds:      creds,
		logger:     logger.Named("solixcloud"),
	}
}

func regionBaseURL(country string) string {
	switch country {
	case "DE", "FR", "ES", "IT", "NL", "BE", "AT", "PL", "SE", "GB":
		return "https://ansrv-eu.solixcloud.com"
	default:
		return "https://ansrv.solixcloud.com"
	}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) Login(ctx context.Context) error {
	sum := md5.Sum([]byte(c.creds.Password))
	req := map[string]string{
		"email":      c.creds.Username,
		"password":   hex.EncodeToString(sum[:]),
		"country_id": c.creds.Country,
	}
	var data struct {
		AuthToken string `json:"auth_token"`
		TokenExp  int64  `json:"token_expires_at"`
	}
	if err := c.post(ctx, loginPath, req, &data); err != nil {
		return err
	}
	if data.AuthToken == "" {
		return errors.New("login response carried no auth token")
	}
	c.authToken = data.AuthToken
	c.logger.Debug("login ok", zap.Time("expires", time.Unix(data.TokenExp, 0)))
	return nil
}

func (c *Client) Fleet(ctx context.Context) (*Fleet, error) {
	if c.authToken == "" {
		return nil, ErrUnauthorized
	}

	var siteData struct {
		SiteList []map[string]any `json:"site_list"`
	}
	if err := c.post(ctx, sitesPath, map[string]any{}, &siteData); err != nil {
		return nil, err
	}

	var devData struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.post(ctx, devicesPath, map[string]any{}, &devData); err != nil {
		return nil, err
	}

	fleet := &Fleet{}
	for _, raw := range siteData.SiteList {
		fleet.Sites = append(fleet.Sites, siteRecord(raw))
	}
	for _, raw := range devData.Data {
		fleet.Devices = append(fleet.Devices, deviceRecord(raw))
	}
	return fleet, nil
}

func siteRecord(raw map[string]any) Record {
	rec := Record{
		ID:       str(raw["site_id"]),
		Category: CategorySite,
		Valid:    validity(raw),
		Fields:   raw,
	}
	if info, ok := raw["site_info"].(map[string]any); ok {
		rec.Name = str(info["site_name"])
	}
	if rec.Name == "" {
		rec.Name = "Unknown"
	}
	return rec
}

func deviceRecord(raw map[string]any) Record {
	rec := Record{
		ID:       str(raw["device_sn"]),
		SiteID:   str(raw["site_id"]),
		Category: str(raw["type"]),
		Valid:    validity(raw),
		Fields:   raw,
	}
	rec.Name = str(raw["name"])
	if rec.Name == "" {
		rec.Name = str(raw["alias"])
	}
	if rec.Name == "" {
		rec.Name = "noname"
	}
	return rec
}

// validity reads the upstream "data is current" indicator. Payloads of older
// firmware omit it; absence counts as valid so they are not permanently
// carried forward.
func validity(raw map[string]any) bool {
	v, present := raw["data_valid"]
	if !present {
		return true
	}
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	default:
		return false
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.authToken = ""
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	if isAuthCode(env.Code) {
		c.authToken = ""
		return fmt.Errorf("%s (%d): %w", env.Msg, env.Code, ErrUnauthorized)
	}
	if env.Code != 0 {
		return fmt.Errorf("%s: api error %d: %s", path, env.Code, env.Msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", path, err)
		}
	}
	return nil
}

// Cloud-side codes meaning the credentials or token were rejected.
func isAuthCode(code int) bool {
	switch code {
	case 401, 10000, 10003, 100053:
		return true
	}
	return false
}
