package cache

import "testing"

func TestKeyFamilyIsBounded(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		// Уникальные ключи дедупликации сводятся к одному семейству.
		{"reminder:17:04.06.2025_09:00", "reminder"},
		{"reminder:18:04.06.2025_09:01", "reminder"},
		{"advice:health_advice:ab12cd34", "advice"},
		{"plain-key", "cache"},
		{":starts-with-colon", "cache"},
	}
	for _, c := range cases {
		if got := keyFamily(c.key); got != c.want {
			t.Fatalf("keyFamily(%q) = %q, ожидали %q", c.key, got, c.want)
		}
	}
}
