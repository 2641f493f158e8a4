package recon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rmaldonado/stocksync/internal/domain/models"
)

// Proposal describes one corrective write awaiting authorization.
type Proposal struct {
	Pair     models.MatchedPair
	Decision models.FieldDecision
}

// Gate is the single seam between a detected mismatch and a write. No
// corrective action is applied without passing through it.
type Gate interface {
	Authorize(ctx context.Context, proposal Proposal) (bool, error)
}

// GateFunc adapts a plain policy function into a Gate.
type GateFunc func(ctx context.Context, proposal Proposal) (bool, error)

// Authorize implements Gate.
func (f GateFunc) Authorize(ctx context.Context, proposal Proposal) (bool, error) {
	return f(ctx, proposal)
}

// AutoApprove authorizes every proposal. Used by non-interactive runs that
// were explicitly asked to apply corrections.
func AutoApprove() Gate {
	return GateFunc(func(context.Context, Proposal) (bool, error) {
		return true, nil
	})
}

// DenyAll skips every proposal, turning a run into a report-only pass.
func DenyAll() Gate {
	return GateFunc(func(context.Context, Proposal) (bool, error) {
		return false, nil
	})
}

// PromptGate asks an interactive operator for a y/n decision per mismatch.
// The run blocks until the operator answers.
type PromptGate struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptGate builds a prompt gate over the given streams.
func NewPromptGate(in io.Reader, out io.Writer) *PromptGate {
	return &PromptGate{in: bufio.NewReader(in), out: out}
}

// Authorize prints the proposal and reads the operator's answer. Anything
// other than y/yes is a skip.
func (g *PromptGate) Authorize(_ context.Context, proposal Proposal) (bool, error) {
	product := proposal.Pair.Erp

	switch proposal.Decision.Field {
	case models.FieldPrice:
		fmt.Fprintf(g.out, "\nProduct %s (%s)\n", product.Name, product.Code)
		fmt.Fprintf(g.out, "  standard_price %s, calculated %s\n", proposal.Decision.Current, proposal.Decision.Calculated)
		fmt.Fprint(g.out, "Do you want to update the cost and price? (y/n): ")
	case models.FieldStock:
		fmt.Fprintf(g.out, "\nProduct %s (%s)\n", product.Name, product.Code)
		fmt.Fprintf(g.out, "  qty_available %s, extract %s\n", proposal.Decision.Current, proposal.Decision.Desired)
		fmt.Fprint(g.out, "Do you want to update the stock? (y/n): ")
	default:
		return false, fmt.Errorf("unknown field family %q", proposal.Decision.Field)
	}

	line, err := g.in.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read operator answer: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
