package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// Skiniver оценивает состояние кожи по фото через внешний сервис.
type Skiniver struct {
	http *http.Client
	url  string
	auth string
}

var _ domain.SkinRecognizer = (*Skiniver)(nil)

// NewSkiniver создаёт клиента проверки кожи.
func NewSkiniver(url, auth string) *Skiniver {
	return &Skiniver{
		http: &http.Client{Timeout: 30 * time.Second},
		url:  strings.TrimRight(url, "/"),
		auth: auth,
	}
}

type skiniverResponse struct {
	Risk            string `json:"risk"`
	RiskDescription string `json:"risk_description"`
	Desease         string `json:"desease"`
	Description     string `json:"description"`
}

// PredictSkin отправляет фото и возвращает оценку риска.
func (s *Skiniver) PredictSkin(ctx context.Context, filename, contentType string, image []byte) (domain.SkinCheck, error) {
	if s.url == "" {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: не настроен")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="img"; filename="%s"`, filename))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: multipart: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &buf)
	if err != nil {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if s.auth != "" {
		req.Header.Set("Authorization", s.auth)
	}

	start := time.Now()
	resp, err := s.http.Do(req)
	metrics.ObserveNetworkRequest("skiniver", "predict", "skin", start, err)
	if err != nil {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: unexpected status %d", resp.StatusCode)
	}

	var parsed skiniverResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.SkinCheck{}, fmt.Errorf("skiniver: decode response: %w", err)
	}

	desc := parsed.RiskDescription
	if desc == "" {
		desc = strings.TrimSpace(strings.Join([]string{parsed.Desease, parsed.Description}, ". "))
	}
	return domain.SkinCheck{
		RiskLevel:       parsed.Risk,
		RiskDescription: desc,
		RawResult:       body,
	}, nil
}
