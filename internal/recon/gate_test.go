package recon

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaldonado/stocksync/internal/domain/models"
)

func priceProposal() Proposal {
	return Proposal{
		Pair: models.MatchedPair{
			Erp: models.Product{ID: 42, Code: "A-100", Name: "Tornillo 6mm"},
		},
		Decision: models.FieldDecision{
			Field:  models.FieldPrice,
			Status: models.StatusMismatch,
		},
	}
}

func TestAutoApproveAuthorizesEverything(t *testing.T) {
	ok, err := AutoApprove().Authorize(context.Background(), priceProposal())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDenyAllSkipsEverything(t *testing.T) {
	ok, err := DenyAll().Authorize(context.Background(), priceProposal())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateFuncAdaptsPolicy(t *testing.T) {
	// Authorize only price corrections.
	gate := GateFunc(func(_ context.Context, p Proposal) (bool, error) {
		return p.Decision.Field == models.FieldPrice, nil
	})

	ok, err := gate.Authorize(context.Background(), priceProposal())
	require.NoError(t, err)
	assert.True(t, ok)

	stock := priceProposal()
	stock.Decision.Field = models.FieldStock
	ok, err = gate.Authorize(context.Background(), stock)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptGateAnswers(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"whatever\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			out := &bytes.Buffer{}
			gate := NewPromptGate(strings.NewReader(tt.answer), out)

			ok, err := gate.Authorize(context.Background(), priceProposal())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "(y/n)")
		})
	}
}

func TestPromptGatePrintsProposalDetails(t *testing.T) {
	out := &bytes.Buffer{}
	gate := NewPromptGate(strings.NewReader("n\n"), out)

	proposal := priceProposal()
	_, err := gate.Authorize(context.Background(), proposal)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Tornillo 6mm")
	assert.Contains(t, out.String(), "A-100")
}

func TestPromptGateErrorsOnClosedInput(t *testing.T) {
	gate := NewPromptGate(strings.NewReader(""), &bytes.Buffer{})

	_, err := gate.Authorize(context.Background(), priceProposal())
	assert.Error(t, err)
}
