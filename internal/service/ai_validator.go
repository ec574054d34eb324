package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// AIValidator checks a submitted report for plausibility. The verdict is
// advisory: it is stored on the issue for admins and never blocks
// submission.
type AIValidator interface {
	ValidateReport(ctx context.Context, department domain.Department, title, description string) (*domain.AIReview, error)
}

// stubAIValidator accepts everything with moderate confidence; used when
// no validation endpoint is configured.
type stubAIValidator struct {
	logger *zap.Logger
}

// NewStubAIValidator creates the placeholder validator.
func NewStubAIValidator(logger *zap.Logger) AIValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stubAIValidator{logger: logger}
}

func (v *stubAIValidator) ValidateReport(_ context.Context, department domain.Department, title, _ string) (*domain.AIReview, error) {
	v.logger.Debug("stub AI validation", zap.String("department", string(department)), zap.String("title", title))
	return &domain.AIReview{Valid: true, Category: string(department), Confidence: 0.5}, nil
}

// HTTPAIValidator calls an external validation API with a bounded timeout.
type HTTPAIValidator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPAIValidator builds the client.
func NewHTTPAIValidator(cfg config.AIValidatorConfig, logger *zap.Logger) *HTTPAIValidator {
	return &HTTPAIValidator{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

type validateRequest struct {
	Department  string `json:"department"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type validateResponse struct {
	Valid      bool    `json:"valid"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ValidateReport posts the report text to the validation endpoint.
func (v *HTTPAIValidator) ValidateReport(ctx context.Context, department domain.Department, title, description string) (*domain.AIReview, error) {
	payload, err := json.Marshal(validateRequest{
		Department:  string(department),
		Title:       title,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/validate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validator returned status %d", resp.StatusCode)
	}

	var result validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &domain.AIReview{
		Valid:      result.Valid,
		Category:   result.Category,
		Confidence: result.Confidence,
	}, nil
}
