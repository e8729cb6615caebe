package summary

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/pkg/ai"
)

// closingShare is the fraction of the call the next-steps extraction
// focuses on; it never looks at fewer than closingMinSegments segments.
const (
	closingShare       = 0.3
	closingMinSegments = 10
	taskMaxTokens      = 512
)

// Generator produces the end-of-call report. Extraction tasks run
// concurrently; a failing task contributes its section's empty default
// so the report is always complete and well-typed.
type Generator struct {
	gen    textGenerator
	repo   repositories.ReportRepository
	logger *zap.Logger
}

type textGenerator interface {
	Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error)
}

// New creates a summary generator
func New(gen textGenerator, repo repositories.ReportRepository, logger *zap.Logger) *Generator {
	return &Generator{gen: gen, repo: repo, logger: logger}
}

// Generate runs all extraction tasks over the final segment set,
// derives risk flags, and persists the assembled report.
func (g *Generator) Generate(ctx context.Context, callID uuid.UUID, segments []entities.Segment) *entities.CallReport {
	report := entities.NewCallReport(callID)

	full := transcript(segments, nil)
	counterparty := transcript(segments, func(s entities.Segment) bool {
		return s.Side == entities.SideCounterparty
	})
	closing := transcript(closingWindow(segments), nil)

	var wg sync.WaitGroup
	var mu sync.Mutex

	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && g.logger != nil {
				g.logger.Warn("summary extraction task failed, using empty default",
					zap.String("call_id", callID.String()),
					zap.String("task", name),
					zap.Error(err),
				)
			}
		}()
	}

	run("bullets", func() error {
		var out struct {
			Bullets []string `json:"bullets"`
		}
		if err := g.extract(ctx, "Summarize the call as 3-6 concise bullet points.",
			full, `{"bullets": [string]}`, &out); err != nil {
			return err
		}
		mu.Lock()
		report.Bullets = nonNil(out.Bullets)
		mu.Unlock()
		return nil
	})

	run("pain_goals", func() error {
		var out struct {
			PainPoints []string `json:"pain_points"`
			Goals      []string `json:"goals"`
		}
		if err := g.extract(ctx, "From the customer's statements only, extract their pain points and goals.",
			counterparty, `{"pain_points": [string], "goals": [string]}`, &out); err != nil {
			return err
		}
		mu.Lock()
		report.PainPoints = nonNil(out.PainPoints)
		report.Goals = nonNil(out.Goals)
		mu.Unlock()
		return nil
	})

	run("objections", func() error {
		var out struct {
			Objections []entities.ObjectionRecord `json:"objections"`
		}
		if err := g.extract(ctx, "Extract every objection the customer raised, how it was responded to, and whether it was resolved. Category is one of: pricing, competitor, timing, authority, need, trust, integration.",
			full, `{"objections": [{"category": string, "text": string, "response": string, "resolved": bool}]}`, &out); err != nil {
			return err
		}
		mu.Lock()
		if out.Objections != nil {
			report.Objections = out.Objections
		}
		mu.Unlock()
		return nil
	})

	run("commitments", func() error {
		var out struct {
			Commitments []entities.Commitment `json:"commitments"`
		}
		if err := g.extract(ctx, "Extract commitments made on the call. Side is \"caller\" for the salesperson, \"counterparty\" for the customer.",
			full, `{"commitments": [{"side": string, "text": string}]}`, &out); err != nil {
			return err
		}
		mu.Lock()
		if out.Commitments != nil {
			report.Commitments = out.Commitments
		}
		mu.Unlock()
		return nil
	})

	run("next_steps", func() error {
		var out struct {
			NextSteps []entities.ReportNextStep `json:"next_steps"`
		}
		if err := g.extract(ctx, "Extract agreed next steps and who owns each.",
			closing, `{"next_steps": [{"description": string, "owner": string, "due_hint": string}]}`, &out); err != nil {
			return err
		}
		mu.Lock()
		if out.NextSteps != nil {
			report.NextSteps = out.NextSteps
		}
		mu.Unlock()
		return nil
	})

	run("decisions", func() error {
		var out struct {
			Decisions []entities.KeyDecision `json:"decisions"`
		}
		if err := g.extract(ctx, "Extract key decisions reached during the call.",
			full, `{"decisions": [{"text": string, "offset_sec": number}]}`, &out); err != nil {
			return err
		}
		mu.Lock()
		if out.Decisions != nil {
			report.Decisions = out.Decisions
		}
		mu.Unlock()
		return nil
	})

	wg.Wait()

	report.RiskFlags = riskFlags(report)

	if g.repo != nil {
		if err := g.repo.SaveReport(ctx, report); err != nil && g.logger != nil {
			g.logger.Warn("failed to persist call report",
				zap.String("call_id", callID.String()),
				zap.Error(err),
			)
		}
	}
	return report
}

func (g *Generator) extract(ctx context.Context, instruction, transcript, shape string, out interface{}) error {
	if g.gen == nil {
		return fmt.Errorf("no generator configured")
	}
	prompt := fmt.Sprintf("Transcript:\n%s\nReturn JSON: %s", transcript, shape)
	raw, err := g.gen.Generate(ctx, instruction, prompt, true, taskMaxTokens)
	if err != nil {
		return err
	}
	return ai.DecodeJSON(raw, out)
}

// riskFlags derives deal-risk warnings from the assembled report
// deterministically, without another model call.
func riskFlags(report *entities.CallReport) []string {
	flags := []string{}

	unresolved := 0
	authority := false
	for _, obj := range report.Objections {
		if !obj.Resolved {
			unresolved++
		}
		if obj.Category == "authority" {
			authority = true
		}
	}
	if unresolved > 0 {
		flags = append(flags, fmt.Sprintf("%d unresolved objection(s)", unresolved))
	}
	if authority {
		flags = append(flags, "decision maker may not have been on the call")
	}
	if len(report.PainPoints) == 0 {
		flags = append(flags, "customer pain not clearly identified")
	}

	customerCommitted := false
	for _, c := range report.Commitments {
		if c.Side == entities.SideCounterparty {
			customerCommitted = true
			break
		}
	}
	if !customerCommitted {
		flags = append(flags, "no commitments from customer")
	}
	return flags
}

// closingWindow returns the final ~30% of the call, never fewer than
// ten segments when that many exist.
func closingWindow(segments []entities.Segment) []entities.Segment {
	n := int(float64(len(segments)) * closingShare)
	if n < closingMinSegments {
		n = closingMinSegments
	}
	if n >= len(segments) {
		return segments
	}
	return segments[len(segments)-n:]
}

func transcript(segments []entities.Segment, keep func(entities.Segment) bool) string {
	var b strings.Builder
	for _, seg := range segments {
		if !seg.IsFinal {
			continue
		}
		if keep != nil && !keep(seg) {
			continue
		}
		fmt.Fprintf(&b, "[%.0fs %s] %s\n", seg.StartOffset, seg.Side, seg.Text)
	}
	return b.String()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
