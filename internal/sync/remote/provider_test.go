package remote

import "testing"

// TestResolveEndpoint verifies per-provider endpoint construction.
func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		cfg       S3Config
		url       string
		region    string
		pathStyle bool
	}{
		{
			name:   "aws default region",
			cfg:    S3Config{},
			url:    "https://s3.amazonaws.com",
			region: "us-east-1",
		},
		{
			name:   "aws regional",
			cfg:    S3Config{Provider: ProviderAWS, Region: "ap-northeast-2"},
			url:    "https://s3.ap-northeast-2.amazonaws.com",
			region: "ap-northeast-2",
		},
		{
			name:   "aws unknown region uses sdk resolution",
			cfg:    S3Config{Region: "il-central-1"},
			url:    "",
			region: "il-central-1",
		},
		{
			name:      "aws custom endpoint",
			cfg:       S3Config{Endpoint: "localhost:4566", PathStyle: true},
			url:       "https://localhost:4566",
			region:    "us-east-1",
			pathStyle: true,
		},
		{
			name:   "r2 account",
			cfg:    S3Config{Provider: ProviderR2, AccountID: "0123456789abcdef0123456789abcdef"},
			url:    "https://0123456789abcdef0123456789abcdef.r2.cloudflarestorage.com",
			region: "auto",
		},
		{
			name:      "minio plain",
			cfg:       S3Config{Provider: ProviderMinIO, Endpoint: "localhost:9000/"},
			url:       "http://localhost:9000",
			region:    "us-east-1",
			pathStyle: true,
		},
		{
			name:      "minio tls",
			cfg:       S3Config{Provider: ProviderMinIO, Endpoint: "minio.example.com", UseSSL: true},
			url:       "https://minio.example.com",
			region:    "us-east-1",
			pathStyle: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := resolveEndpoint(tt.cfg)
			if err != nil {
				t.Fatalf("resolveEndpoint() error = %v", err)
			}
			if ep.URL != tt.url {
				t.Errorf("URL = %q, want %q", ep.URL, tt.url)
			}
			if ep.Region != tt.region {
				t.Errorf("Region = %q, want %q", ep.Region, tt.region)
			}
			if ep.PathStyle != tt.pathStyle {
				t.Errorf("PathStyle = %v, want %v", ep.PathStyle, tt.pathStyle)
			}
		})
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"", ProviderAWS, false},
		{"S3", ProviderAWS, false},
		{"cloudflare", ProviderR2, false},
		{"MinIO", ProviderMinIO, false},
		{"gcs", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProvider(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidR2AccountID(t *testing.T) {
	if !IsValidR2AccountID("0123456789ABCDEF0123456789abcdef") {
		t.Error("expected valid account id")
	}
	for _, id := range []string{"", "abc", "g123456789abcdef0123456789abcdef"} {
		if IsValidR2AccountID(id) {
			t.Errorf("IsValidR2AccountID(%q) = true", id)
		}
	}
}
