package integration

import (
	"net/http"
	"net/url"
	"testing"
)

func TestIntegration_ValidationErrors(t *testing.T) {
	waitReady(t)
	cases := []struct {
		name string
		vals url.Values
		want int
	}{
		{"blank_name", url.Values{"name": {" "}}, http.StatusBadRequest},
		{"negative_price", url.Values{"price": {"-1"}}, http.StatusBadRequest},
		{"latitude_out_of_range", url.Values{"latitude": {"120"}}, http.StatusBadRequest},
		{"bad_status", url.Values{"status": {"sold"}}, http.StatusBadRequest},
		{"features_not_array", url.Values{"features": {"Wifi"}}, http.StatusBadRequest},
		{"boundary_zero_price", url.Values{"price": {"0"}}, http.StatusOK},
		{"boundary_latitude", url.Values{"latitude": {"-90"}}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := putForm(t, "P2", tc.vals)
			_ = resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}
