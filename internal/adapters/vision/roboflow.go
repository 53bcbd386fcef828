package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// Roboflow распознаёт заболевания зубов по снимку через inference API.
type Roboflow struct {
	http   *http.Client
	url    string
	apiKey string
}

var _ domain.DentalRecognizer = (*Roboflow)(nil)

// NewRoboflow создаёт клиента распознавания.
func NewRoboflow(url, apiKey string) *Roboflow {
	return &Roboflow{
		http:   &http.Client{Timeout: 30 * time.Second},
		url:    strings.TrimRight(url, "/"),
		apiKey: apiKey,
	}
}

// DetectDental отправляет снимок в модель и возвращает сырой JSON
// с найденными объектами.
func (r *Roboflow) DetectDental(ctx context.Context, image []byte) ([]byte, error) {
	if r.url == "" || r.apiKey == "" {
		return nil, errors.New("roboflow: не настроен")
	}

	encoded := base64.StdEncoding.EncodeToString(image)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"?api_key="+r.apiKey, strings.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("roboflow: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := r.http.Do(req)
	metrics.ObserveNetworkRequest("roboflow", "detect", "dental", start, err)
	if err != nil {
		return nil, fmt.Errorf("roboflow: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("roboflow: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("roboflow: unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
