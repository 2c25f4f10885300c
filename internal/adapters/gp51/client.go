// Package gp51 talks to the GP51 tracking platform webapi. The API is
// action-based: every call is a POST to the base URL with an action query
// parameter and a JSON body. Authentication is a token obtained from the
// login action with an MD5-hashed password.
package gp51

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

const tokenLifetime = 23 * time.Hour

// Client implements ports.PositionSource against the GP51 webapi.
type Client struct {
	baseURL  string
	username string
	password string
	httpc    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a GP51 client. The password is stored raw and hashed at
// login time.
func New(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	Type     string `json:"type"`
}

type loginResponse struct {
	Status int    `json:"status"`
	Cause  string `json:"cause"`
	Token  string `json:"token"`
}

type deviceListResponse struct {
	Status int    `json:"status"`
	Cause  string `json:"cause"`
	Groups []struct {
		Devices []Device `json:"devices"`
	} `json:"groups"`
}

// Device is a tracker registered on the GP51 account.
type Device struct {
	DeviceID   string `json:"deviceid"`
	DeviceName string `json:"devicename"`
	DeviceType int    `json:"devicetype"`
	SIMNumber  string `json:"simnum"`
}

type lastPositionRequest struct {
	DeviceIDs             []string `json:"deviceids"`
	LastQueryPositionTime int64    `json:"lastquerypositiontime"`
}

type lastPositionResponse struct {
	Status  int    `json:"status"`
	Cause   string `json:"cause"`
	Records []struct {
		DeviceID   string  `json:"deviceid"`
		Callat     float64 `json:"callat"`
		Callon     float64 `json:"callon"`
		Speed      float64 `json:"speed"`
		Course     float64 `json:"course"`
		Altitude   float64 `json:"altitude"`
		UpdateTime int64   `json:"updatetime"`
		Status     int     `json:"status"`
		Moving     int     `json:"moving"`
	} `json:"records"`
}

// login obtains a fresh token. Caller must hold c.mu.
func (c *Client) login(ctx context.Context) error {
	sum := md5.Sum([]byte(c.password))
	req := loginRequest{
		Username: c.username,
		Password: hex.EncodeToString(sum[:]),
		From:     "WEB",
		Type:     "USER",
	}

	var resp loginResponse
	if err := c.call(ctx, "login", "", req, &resp); err != nil {
		return fmt.Errorf("gp51 login: %w", err)
	}
	if resp.Status != 0 {
		return fmt.Errorf("gp51 login rejected: %s", resp.Cause)
	}

	c.token = resp.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	return nil
}

// session returns a valid token, logging in if the current one expired.
func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.tokenExpiry) {
		if err := c.login(ctx); err != nil {
			return "", err
		}
	}
	return c.token, nil
}

// invalidate drops the cached token so the next call re-logs in.
func (c *Client) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) call(ctx context.Context, action, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	u := c.baseURL + "?action=" + url.QueryEscape(action)
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gp51 %s: http %d", action, resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}

// Devices lists all trackers registered on the account.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	token, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	var resp deviceListResponse
	if err := c.call(ctx, "querymonitorlist", token, map[string]string{"username": c.username}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 0 {
		c.invalidate()
		return nil, fmt.Errorf("gp51 querymonitorlist: %s", resp.Cause)
	}

	var devices []Device
	for _, g := range resp.Groups {
		devices = append(devices, g.Devices...)
	}
	return devices, nil
}

// FetchPositions returns the latest known position of every device on the
// account. Implements ports.PositionSource.
func (c *Client) FetchPositions(ctx context.Context) ([]domain.VehiclePosition, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}

	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.DeviceID
	}

	token, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	var resp lastPositionResponse
	req := lastPositionRequest{DeviceIDs: ids}
	if err := c.call(ctx, "lastposition", token, req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 0 {
		c.invalidate()
		return nil, fmt.Errorf("gp51 lastposition: %s", resp.Cause)
	}

	positions := make([]domain.VehiclePosition, 0, len(resp.Records))
	for _, rec := range resp.Records {
		positions = append(positions, domain.VehiclePosition{
			DeviceID: rec.DeviceID,
			Time:     time.UnixMilli(rec.UpdateTime).UTC(),
			Location: domain.GeoPoint{Lat: rec.Callat, Lon: rec.Callon},
			Speed:    rec.Speed,
			Heading:  rec.Course,
			Altitude: rec.Altitude,
			Ignition: rec.Moving == 1,
		})
	}
	return positions, nil
}
