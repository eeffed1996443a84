package batch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
)

var (
	ErrChaosNetwork = errors.New("ChaosNetworkError('Simulated network failure from chaos layer')")
	ErrChaosTool    = errors.New("ChaosToolError('Simulated tool failure from chaos layer')")
)

const badOutputError = "LLMOutputError('Simulated malformed plan from chaos layer')"

// ChaosRunner оборачивает ConversationRunner слоем инъекции отказов:
// задержка сети, отказ сети до вызова, отказ инструмента после, испорченный план.
type ChaosRunner struct {
	next    ConversationRunner
	cfg     domain.ChaosConfig
	rnd     *lockedRand
	metrics *metrics.Metrics
}

func NewChaosRunner(next ConversationRunner, cfg domain.ChaosConfig, seed uint64, m *metrics.Metrics) *ChaosRunner {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &ChaosRunner{next: next, cfg: cfg, rnd: newLockedRand(seed), metrics: m}
}

func (c *ChaosRunner) Run(ctx context.Context, spec RunSpec) (domain.ConversationResult, error) {
	if !c.cfg.Enabled {
		return c.next.Run(ctx, spec)
	}

	jitter := c.rnd.between(
		time.Duration(c.cfg.JitterMinMs)*time.Millisecond,
		time.Duration(c.cfg.JitterMaxMs)*time.Millisecond,
	)
	select {
	case <-ctx.Done():
		return domain.ConversationResult{}, ctx.Err()
	case <-time.After(jitter):
	}

	if c.rnd.Float64() < c.cfg.NetworkFailProb {
		c.metrics.ChaosFaults.WithLabelValues("network").Inc()
		return domain.ConversationResult{}, ErrChaosNetwork
	}

	res, err := c.next.Run(ctx, spec)
	if err != nil {
		return res, err
	}
	res.LatencyMs += int(jitter.Milliseconds())

	if c.rnd.Float64() < c.cfg.ToolFailProb {
		c.metrics.ChaosFaults.WithLabelValues("tool").Inc()
		return domain.ConversationResult{}, ErrChaosTool
	}

	if c.rnd.Float64() < c.cfg.LLMBadOutputProb {
		c.metrics.ChaosFaults.WithLabelValues("llm_bad_output").Inc()
		res.Success = false
		res.PlanStruct = json.RawMessage(`{}`)
		res.Errors = append(res.Errors, badOutputError)
	}
	return res, nil
}
