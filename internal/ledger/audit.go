package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/treasury/internal/calculator"
	"github.com/mmynk/treasury/internal/models"
)

// auditPageSize bounds how many events Audit reads per store call.
const auditPageSize = 500

// AuditReport is the outcome of checking a treasury against its event log.
type AuditReport struct {
	TreasuryID string

	// Replayed totals; nil if the log could not be replayed.
	Conservation *calculator.Conservation

	// Problems lists every discrepancy found. Empty means the treasury's
	// stored state is exactly what its event log implies.
	Problems []string
}

// OK reports whether the audit found no problems.
func (r *AuditReport) OK() bool {
	return len(r.Problems) == 0
}

// Audit verifies a treasury's event log hash chain and checks conservation:
// the stored balance must equal deposits minus settlements minus withdrawals,
// with no intermediate point negative, and the stored admin and head must
// match the log.
func (l *Ledger) Audit(ctx context.Context, id string) (*AuditReport, error) {
	t, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	for after := uint64(0); ; {
		page, err := l.store.ListEvents(ctx, id, after, auditPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to read events for audit: %w", err)
		}
		events = append(events, page...)
		if len(page) < auditPageSize {
			break
		}
		after = page[len(page)-1].Seq
	}

	report := &AuditReport{TreasuryID: id}
	report.Problems = append(report.Problems, VerifyChain(events)...)

	c, err := calculator.Replay(events)
	if err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("replay: %v", err))
	} else {
		report.Conservation = c
		if c.Balance.Cmp(t.Balance) != 0 {
			report.Problems = append(report.Problems,
				fmt.Sprintf("balance %s does not match replayed %s", t.Balance, c.Balance))
		}
		if c.Admin != t.Admin {
			report.Problems = append(report.Problems,
				fmt.Sprintf("admin %s does not match replayed %s", t.Admin, c.Admin))
		}
	}

	if n := len(events); n > 0 {
		last := events[n-1]
		if last.Seq != t.Seq || last.Hash != t.Head {
			report.Problems = append(report.Problems,
				fmt.Sprintf("head seq %d/%s does not match log tip %d/%s", t.Seq, t.Head, last.Seq, last.Hash))
		}
	}

	if !report.OK() {
		l.logger.Error("Treasury audit failed", "treasury_id", id, "problems", report.Problems)
	}
	return report, nil
}

// VerifyChain walks events in order and reports every broken link or digest.
func VerifyChain(events []models.Event) []string {
	var problems []string
	prev := models.GenesisHash
	for _, e := range events {
		if e.PrevHash != prev {
			problems = append(problems, fmt.Sprintf("event %d: prev hash %s, want %s", e.Seq, e.PrevHash, prev))
		}
		digest, err := e.Digest()
		if err != nil {
			problems = append(problems, fmt.Sprintf("event %d: %v", e.Seq, err))
		} else if digest != e.Hash {
			problems = append(problems, fmt.Sprintf("event %d: hash mismatch", e.Seq))
		}
		prev = e.Hash
	}
	return problems
}
