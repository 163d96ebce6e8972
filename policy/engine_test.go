package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/policy"
)

func TestCanUseToolDisallowedWins(t *testing.T) {
	e, err := policy.NewEngine(contract.PolicyProfile{
		DisallowedTools: []string{"Bash"},
		DenyWrite:       []string{"secret/**"},
	})
	require.NoError(t, err)

	d := e.CanUseTool("Bash")
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Bash")

	d = e.CanUseTool("Read")
	assert.True(t, d.Allowed)

	d = e.CanWritePath("secret/k.txt")
	assert.False(t, d.Allowed)

	d = e.CanWritePath("src/a.rs")
	assert.True(t, d.Allowed)
}

func TestCanUseToolAbsentFromNonEmptyAllowlistDenies(t *testing.T) {
	e, err := policy.NewEngine(contract.PolicyProfile{
		AllowedTools: []string{"Read", "Grep"},
	})
	require.NoError(t, err)

	assert.True(t, e.CanUseTool("Read").Allowed)
	d := e.CanUseTool("Bash")
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "not in allowlist")
}

func TestCanReadPathDenyGlob(t *testing.T) {
	e, err := policy.NewEngine(contract.PolicyProfile{
		DenyRead: []string{"**/*.env"},
	})
	require.NoError(t, err)

	assert.False(t, e.CanReadPath("config/.env").Allowed)
	assert.True(t, e.CanReadPath("config/app.yaml").Allowed)
}

func TestCanAccessHostAllowlist(t *testing.T) {
	e, err := policy.NewEngine(contract.PolicyProfile{
		AllowNetwork: []string{"*.anthropic.com"},
	})
	require.NoError(t, err)

	assert.True(t, e.CanAccessHost("api.anthropic.com").Allowed)
	assert.False(t, e.CanAccessHost("evil.example.com").Allowed)
}

func TestRequiresApproval(t *testing.T) {
	e, err := policy.NewEngine(contract.PolicyProfile{
		RequireApprovalFor: []string{"Bash", "deploy_*"},
	})
	require.NoError(t, err)

	assert.True(t, e.RequiresApproval("Bash"))
	assert.True(t, e.RequiresApproval("deploy_prod"))
	assert.False(t, e.RequiresApproval("Read"))
}

func TestComposeDenyOverrides(t *testing.T) {
	permissive, err := policy.NewEngine(contract.PolicyProfile{})
	require.NoError(t, err)
	restrictive, err := policy.NewEngine(contract.PolicyProfile{DisallowedTools: []string{"Bash"}})
	require.NoError(t, err)

	d := policy.ComposeCanUseTool([]*policy.Engine{permissive, restrictive}, policy.DenyOverrides, "Bash")
	assert.False(t, d.Allowed)
}

func TestComposeAllowOverrides(t *testing.T) {
	permissive, err := policy.NewEngine(contract.PolicyProfile{})
	require.NoError(t, err)
	restrictive, err := policy.NewEngine(contract.PolicyProfile{DisallowedTools: []string{"Bash"}})
	require.NoError(t, err)

	d := policy.ComposeCanUseTool([]*policy.Engine{restrictive, permissive}, policy.AllowOverrides, "Bash")
	assert.True(t, d.Allowed)

	bothDeny := policy.ComposeCanUseTool([]*policy.Engine{restrictive, restrictive}, policy.AllowOverrides, "Bash")
	assert.False(t, bothDeny.Allowed)
}

func TestComposeFirstApplicable(t *testing.T) {
	restrictive, err := policy.NewEngine(contract.PolicyProfile{DisallowedTools: []string{"Bash"}})
	require.NoError(t, err)
	permissive, err := policy.NewEngine(contract.PolicyProfile{})
	require.NoError(t, err)

	d := policy.ComposeCanUseTool([]*policy.Engine{restrictive, permissive}, policy.FirstApplicable, "Bash")
	assert.False(t, d.Allowed)

	d2 := policy.ComposeCanUseTool([]*policy.Engine{permissive, restrictive}, policy.FirstApplicable, "Bash")
	assert.True(t, d2.Allowed)
}

func TestAuditorRecordsAndSummarizes(t *testing.T) {
	e, err := policy.NewEngine(contract.PolicyProfile{
		DisallowedTools: []string{"Bash"},
		DenyWrite:       []string{"secret/**"},
	})
	require.NoError(t, err)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := policy.NewAuditorWithClock(e, func() time.Time { return fixed })

	a.CheckTool("Bash")
	a.CheckTool("Read")
	a.CheckWrite("secret/k.txt")

	require.Len(t, a.Entries(), 3)
	assert.Equal(t, 2, a.DeniedCount())
	assert.Equal(t, 1, a.AllowedCount())

	summary := a.Summary()
	assert.Equal(t, 1, summary.Allowed)
	assert.Equal(t, 2, summary.Denied)
}
