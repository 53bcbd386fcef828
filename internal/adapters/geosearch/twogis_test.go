package geosearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchClinicsParsesCatalogResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Fatalf("ожидали ключ test-key, получили %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "стоматология Алматы" {
			t.Fatalf("неожиданный запрос: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"meta": {"code": 200},
			"result": {"items": [{
				"name": "Дента Люкс",
				"address_name": "ул. Абая, 10",
				"contact_groups": [{"contacts": [{"type": "phone", "value": "+7 700 000 00 00"}]}],
				"schedule": {"comment": "Ежедневно 9:00-21:00"},
				"point": {"lat": 43.25, "lon": 76.95},
				"rubrics": [{"name": "Стоматологические клиники"}]
			}]}
		}`))
	}))
	defer srv.Close()

	client := NewTwoGIS("test-key", srv.URL)
	results, err := client.SearchClinics(context.Background(), "стоматология", "Алматы", 1, 10)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("ожидали 1 результат, получили %d", len(results))
	}
	clinic := results[0]
	if clinic.Name != "Дента Люкс" || clinic.Phone != "+7 700 000 00 00" {
		t.Fatalf("неожиданный результат: %+v", clinic)
	}
	if clinic.Lat != 43.25 || clinic.Lon != 76.95 {
		t.Fatalf("неожиданные координаты: %+v", clinic)
	}
	if len(clinic.Categories) != 1 || clinic.Categories[0] != "Стоматологические клиники" {
		t.Fatalf("неожиданные рубрики: %v", clinic.Categories)
	}
}

func TestSearchClinicsReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meta": {"code": 403, "error": {"message": "key is invalid"}}}`))
	}))
	defer srv.Close()

	client := NewTwoGIS("bad-key", srv.URL)
	if _, err := client.SearchClinics(context.Background(), "клиника", "", 1, 10); err == nil {
		t.Fatal("ошибка каталога должна пробрасываться")
	}
}

func TestSearchClinicsRequiresAPIKey(t *testing.T) {
	client := NewTwoGIS("", "")
	if _, err := client.SearchClinics(context.Background(), "клиника", "", 1, 10); err == nil {
		t.Fatal("пустой ключ должен быть ошибкой")
	}
}
