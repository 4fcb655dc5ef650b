package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Masterminds/semver/v3"
)

// CompatibleVersions is the range of backend versions this client can talk to.
const CompatibleVersions = "^0.2.1"

// ErrNotHub20Server indicates the probed URL did not answer like a Hub20
// backend.
var ErrNotHub20Server = errors.New("server response is not from a hub20 backend")

// ErrIncompatibleServer indicates the backend version is outside the
// supported range.
var ErrIncompatibleServer = errors.New("incompatible hub20 server version")

// indexResponseKeys is the exact key set the server root endpoint must
// return. Any deviation means the URL is not a compatible backend.
var indexResponseKeys = []string{
	"current_user_url",
	"network_status_url",
	"accounting_report_url",
	"tokens_url",
	"users_url",
	"version",
}

// ServerIndex is the root endpoint response of a Hub20 backend.
type ServerIndex struct {
	CurrentUserURL      string `json:"current_user_url"`
	NetworkStatusURL    string `json:"network_status_url"`
	AccountingReportURL string `json:"accounting_report_url"`
	TokensURL           string `json:"tokens_url"`
	UsersURL            string `json:"users_url"`
	Version             string `json:"version"`
}

// CheckServer probes url for a Hub20 backend and returns its advertised
// version. The response must carry exactly the expected index keys and the
// version must satisfy CompatibleVersions.
func (c *Client) CheckServer(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("probe server: %w", err)
	}
	if err := resp.Error(); err != nil {
		return "", err
	}

	var index map[string]json.RawMessage
	if err := resp.JSON(&index); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotHub20Server, err)
	}
	if !hasExactKeys(index, indexResponseKeys) {
		return "", ErrNotHub20Server
	}

	var version string
	if err := json.Unmarshal(index["version"], &version); err != nil {
		return "", fmt.Errorf("%w: bad version field", ErrNotHub20Server)
	}

	if err := CheckVersion(version); err != nil {
		return "", err
	}
	return version, nil
}

// CheckVersion verifies that an advertised server version is within the
// supported range.
func CheckVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: cannot parse version %q", ErrIncompatibleServer, version)
	}

	constraint, err := semver.NewConstraint(CompatibleVersions)
	if err != nil {
		return fmt.Errorf("parse version constraint: %w", err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("%w: server is %s, client requires %s", ErrIncompatibleServer, version, CompatibleVersions)
	}
	return nil
}

func hasExactKeys(m map[string]json.RawMessage, keys []string) bool {
	if len(m) != len(keys) {
		return false
	}
	for _, key := range keys {
		if _, ok := m[key]; !ok {
			return false
		}
	}
	return true
}
