package geosearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

const defaultBaseURL = "https://catalog.api.2gis.com/3.0/items"

// TwoGIS ищет клиники в каталоге 2GIS.
type TwoGIS struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

var _ domain.ClinicSearcher = (*TwoGIS)(nil)

// NewTwoGIS создаёт клиента каталога.
func NewTwoGIS(apiKey, baseURL string) *TwoGIS {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &TwoGIS{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type itemsResponse struct {
	Meta struct {
		Code  int `json:"code"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"meta"`
	Result struct {
		Items []item `json:"items"`
	} `json:"result"`
}

type item struct {
	Name         string `json:"name"`
	AddressName  string `json:"address_name"`
	ContactGroup []struct {
		Contacts []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"contacts"`
	} `json:"contact_groups"`
	Schedule struct {
		Comment string `json:"comment"`
	} `json:"schedule"`
	Point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"point"`
	Rubrics []struct {
		Name string `json:"name"`
	} `json:"rubrics"`
}

// SearchClinics выполняет поиск организаций по запросу и городу.
func (g *TwoGIS) SearchClinics(ctx context.Context, query, city string, page, pageSize int) ([]domain.ClinicResult, error) {
	if g.apiKey == "" {
		return nil, errors.New("2gis: api key is empty")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 10
	}
	q := strings.TrimSpace(query)
	if city != "" {
		q = q + " " + city
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("fields", "items.point,items.schedule,items.contact_groups,items.rubrics,items.address_name")
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("2gis: build request: %w", err)
	}

	start := time.Now()
	resp, err := g.http.Do(req)
	metrics.ObserveNetworkRequest("2gis", "items_search", "catalog", start, err)
	if err != nil {
		return nil, fmt.Errorf("2gis: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("2gis: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("2gis: unexpected status %d", resp.StatusCode)
	}

	var parsed itemsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("2gis: decode response: %w", err)
	}
	if parsed.Meta.Error.Message != "" {
		return nil, fmt.Errorf("2gis: %s", parsed.Meta.Error.Message)
	}

	results := make([]domain.ClinicResult, 0, len(parsed.Result.Items))
	for _, it := range parsed.Result.Items {
		clinic := domain.ClinicResult{
			Name:     it.Name,
			Address:  it.AddressName,
			Schedule: it.Schedule.Comment,
			Lat:      it.Point.Lat,
			Lon:      it.Point.Lon,
		}
		for _, group := range it.ContactGroup {
			for _, contact := range group.Contacts {
				if contact.Type == "phone" && clinic.Phone == "" {
					clinic.Phone = contact.Value
				}
			}
		}
		for _, rubric := range it.Rubrics {
			clinic.Categories = append(clinic.Categories, rubric.Name)
		}
		results = append(results, clinic)
	}
	return results, nil
}
