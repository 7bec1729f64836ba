package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentiq-console/internal/domain"
)

func TestDefaultPolicy_Decide(t *testing.T) {
	p := DefaultPolicy{}

	cases := []struct {
		name      string
		isError   bool
		slaBreach bool
		want      *string
	}{
		{"error wins over sla", true, true, ptr(RemediationRestart)},
		{"error only", true, false, ptr(RemediationRestart)},
		{"sla only", false, true, ptr(RemediationScale)},
		{"healthy", false, false, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, action := range domain.KnownActions {
				got := p.Decide(action, tc.isError, tc.slaBreach)
				if tc.want == nil {
					assert.Nil(t, got)
					continue
				}
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestDefaultPolicy_Name(t *testing.T) {
	assert.Equal(t, "Default Remediation Policy", DefaultPolicy{}.Name())
}
