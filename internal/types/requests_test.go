package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerateRequest
		wantErr string
	}{
		{"valid", GenerateRequest{CompanyName: "Acme", GenerateCount: 5}, ""},
		{"defaults count", GenerateRequest{CompanyName: " Acme "}, ""},
		{"count too low", GenerateRequest{CompanyName: "Acme", GenerateCount: 2}, "generate_count must be at least 3"},
		{"count too high", GenerateRequest{CompanyName: "Acme", GenerateCount: 8}, "generate_count must be at most 7"},
		{"missing company", GenerateRequest{CompanyName: "   ", GenerateCount: 3}, "company_name is required"},
		{"too many sources", GenerateRequest{CompanyName: "Acme", GenerateCount: 3, SourceIDs: make([]uuid.UUID, 21)}, "source_ids must be at most 20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerateRequest_NormalizeDefaults(t *testing.T) {
	r := GenerateRequest{CompanyName: "  Acme  "}
	r.Normalize()
	assert.Equal(t, "Acme", r.CompanyName)
	assert.Equal(t, DefaultGenerateCount, r.GenerateCount)
}

func TestScrapeRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ScrapeRequest{URL: "https://acme.com/about"}).Validate())

	err := (&ScrapeRequest{URL: "ftp://acme.com"}).Validate()
	assert.ErrorContains(t, err, "url must be an http(s) URL")

	err = (&ScrapeRequest{}).Validate()
	assert.ErrorContains(t, err, "url is required")
}

func TestCompanySearchRequest_Flags(t *testing.T) {
	var r CompanySearchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"company_name": "Acme", "include_news": false}`), &r))
	r.Normalize()

	assert.NoError(t, r.Validate())
	assert.False(t, r.News())
	assert.True(t, r.CaseStudies())
}

func TestEvaluateRequest_Validate(t *testing.T) {
	var r EvaluateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"personas": [{"persona_name": "A"}]}`), &r))
	assert.NoError(t, r.Validate())

	assert.ErrorContains(t, (&EvaluateRequest{}).Validate(), "personas is required")
}

func TestTokenRequest_Validate(t *testing.T) {
	err := (&TokenRequest{ClientID: "persona-client"}).Validate()
	assert.EqualError(t, err, "invalid request: client_secret is required")
}
