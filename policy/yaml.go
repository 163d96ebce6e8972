package policy

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// yamlProfile mirrors contract.PolicyProfile with YAML tags so a profile can
// be authored in a human-edited file alongside a work order.
type yamlProfile struct {
	AllowedTools       []string `yaml:"allowed_tools"`
	DisallowedTools    []string `yaml:"disallowed_tools"`
	DenyRead           []string `yaml:"deny_read"`
	DenyWrite          []string `yaml:"deny_write"`
	AllowNetwork       []string `yaml:"allow_network"`
	DenyNetwork        []string `yaml:"deny_network"`
	RequireApprovalFor []string `yaml:"require_approval_for"`
}

func (p yamlProfile) toProfile() contract.PolicyProfile {
	return contract.PolicyProfile{
		AllowedTools:       p.AllowedTools,
		DisallowedTools:    p.DisallowedTools,
		DenyRead:           p.DenyRead,
		DenyWrite:          p.DenyWrite,
		AllowNetwork:       p.AllowNetwork,
		DenyNetwork:        p.DenyNetwork,
		RequireApprovalFor: p.RequireApprovalFor,
	}
}

// LoadProfileYAML parses a single PolicyProfile from YAML bytes.
func LoadProfileYAML(data []byte) (contract.PolicyProfile, error) {
	var p yamlProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return contract.PolicyProfile{}, abperrors.Wrap(abperrors.ConfigInvalid, "parsing policy profile YAML", err)
	}
	return p.toProfile(), nil
}

// LoadProfileYAMLFile reads and parses a PolicyProfile from a YAML file on disk.
func LoadProfileYAMLFile(path string) (contract.PolicyProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return contract.PolicyProfile{}, abperrors.Wrap(abperrors.ConfigInvalid, "reading policy profile file", err)
	}
	return LoadProfileYAML(data)
}
