package settlement

import (
	"fmt"
	"math/rand"

	"github.com/tranzor/tranzor-core/pkg/records"
)

// approvalThreshold is strict: a score must exceed it to approve, giving an
// expected ~90% approval rate under the uniform placeholder model.
const approvalThreshold = 0.1

// declineReason is the statusReason recorded on declined transactions.
const declineReason = "Fraud Detected (simulated)"

// Outcome is one risk evaluation result. Score lies in [0, 1).
type Outcome struct {
	Score    float64
	Approved bool
	Details  string
}

// Evaluator computes a fraud decision for a transaction.
type Evaluator interface {
	Evaluate(tx *records.Transaction) Outcome
}

// RandomEvaluator is the placeholder risk model: a uniformly-random score,
// approved iff it exceeds the threshold. Not representative of a real model.
type RandomEvaluator struct{}

// NewRandomEvaluator creates the placeholder evaluator.
func NewRandomEvaluator() *RandomEvaluator {
	return &RandomEvaluator{}
}

// Evaluate implements Evaluator.
func (e *RandomEvaluator) Evaluate(_ *records.Transaction) Outcome {
	score := rand.Float64()
	approved := score > approvalThreshold
	verdict := "below"
	if approved {
		verdict = "above"
	}
	return Outcome{
		Score:    score,
		Approved: approved,
		Details:  fmt.Sprintf("Simulated risk score %.4f is %s the approval threshold %.2f", score, verdict, approvalThreshold),
	}
}
