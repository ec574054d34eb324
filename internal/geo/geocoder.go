package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// GeocodeResult holds the address fields returned by the external
// reverse-geocoding collaborator, before canonicalization.
type GeocodeResult struct {
	State        string `json:"state"`
	District     string `json:"district"`
	Municipality string `json:"municipality"`
	Pincode      string `json:"pincode"`
}

// Geocoder is the external reverse-geocoding collaborator.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResult, error)
}

// HTTPGeocoder calls a reverse-geocoding HTTP API with a bounded timeout.
type HTTPGeocoder struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPGeocoder builds the client. The per-call timeout comes from the
// geocoder config; a slow collaborator must never block a transition
// indefinitely.
func NewHTTPGeocoder(cfg config.GeocoderConfig, logger *zap.Logger) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

// ReverseGeocode resolves coordinates to address fields.
func (g *HTTPGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResult, error) {
	if g.baseURL == "" {
		return nil, apperrors.NewUnresolvedLocation(map[string]any{"reason": "geocoder not configured"})
	}

	endpoint := fmt.Sprintf("%s/reverse?%s", g.baseURL, url.Values{
		"lat": {fmt.Sprintf("%f", lat)},
		"lng": {fmt.Sprintf("%f", lng)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, apperrors.NewCollaboratorTimeout("geocoder", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("geocoder returned non-200", zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewUnresolvedLocation(map[string]any{"geocoder_status": resp.StatusCode})
	}

	var result GeocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
