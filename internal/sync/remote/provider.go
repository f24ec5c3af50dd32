package remote

import (
	"fmt"
	"strings"
)

// Provider names an S3-compatible service.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderR2    Provider = "r2"
	ProviderMinIO Provider = "minio"
)

// Default AWS S3 endpoints by region.
var awsEndpoints = map[string]string{
	"us-east-1":      "s3.amazonaws.com",
	"us-east-2":      "s3.us-east-2.amazonaws.com",
	"us-west-1":      "s3.us-west-1.amazonaws.com",
	"us-west-2":      "s3.us-west-2.amazonaws.com",
	"eu-west-1":      "s3.eu-west-1.amazonaws.com",
	"eu-central-1":   "s3.eu-central-1.amazonaws.com",
	"ap-northeast-1": "s3.ap-northeast-1.amazonaws.com",
	"ap-northeast-2": "s3.ap-northeast-2.amazonaws.com",
	"ap-southeast-1": "s3.ap-southeast-1.amazonaws.com",
	"ap-south-1":     "s3.ap-south-1.amazonaws.com",
	"ca-central-1":   "s3.ca-central-1.amazonaws.com",
	"sa-east-1":      "s3.sa-east-1.amazonaws.com",
}

// endpoint is the resolved connection target for a provider.
type endpoint struct {
	URL       string // empty means SDK default resolution
	Region    string
	PathStyle bool
}

// ParseProvider normalizes a provider name. Empty means AWS.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderAWS, "s3":
		return ProviderAWS, nil
	case ProviderR2, "cloudflare":
		return ProviderR2, nil
	case ProviderMinIO:
		return ProviderMinIO, nil
	default:
		return "", fmt.Errorf("unknown s3 provider: %s", s)
	}
}

// resolveEndpoint maps the S3 settings onto an endpoint.
//
// AWS uses virtual-host style URLs with a regional endpoint unless one is
// given explicitly. R2 uses https://<account>.r2.cloudflarestorage.com with
// region "auto". MinIO needs path-style URLs and ignores regions.
func resolveEndpoint(cfg S3Config) (endpoint, error) {
	provider, err := ParseProvider(string(cfg.Provider))
	if err != nil {
		return endpoint{}, err
	}

	switch provider {
	case ProviderR2:
		if cfg.Endpoint != "" {
			return endpoint{URL: withScheme(cfg.Endpoint, true), Region: "auto"}, nil
		}
		if !IsValidR2AccountID(cfg.AccountID) {
			return endpoint{}, fmt.Errorf("invalid r2 account id: %q", cfg.AccountID)
		}
		return endpoint{
			URL:    fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID),
			Region: "auto",
		}, nil

	case ProviderMinIO:
		if cfg.Endpoint == "" {
			return endpoint{}, fmt.Errorf("minio endpoint cannot be empty")
		}
		return endpoint{
			URL:       withScheme(cfg.Endpoint, cfg.UseSSL),
			Region:    "us-east-1",
			PathStyle: true,
		}, nil

	default:
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		if cfg.Endpoint != "" {
			return endpoint{URL: withScheme(cfg.Endpoint, true), Region: region, PathStyle: cfg.PathStyle}, nil
		}
		if host, ok := awsEndpoints[region]; ok {
			return endpoint{URL: "https://" + host, Region: region}, nil
		}
		// Unknown regions fall back to SDK resolution.
		return endpoint{Region: region}, nil
	}
}

func withScheme(host string, useSSL bool) string {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		if useSSL {
			host = "https://" + host
		} else {
			host = "http://" + host
		}
	}
	return strings.TrimSuffix(host, "/")
}

// IsValidR2AccountID reports whether id looks like a Cloudflare account id
// (32 hex characters).
func IsValidR2AccountID(id string) bool {
	if len(id) != 32 {
		return false
	}
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
