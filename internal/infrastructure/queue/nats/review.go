package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/meridianbio/labintake/internal/core/domain"
)

// ReviewGate brokers human review as a request/reply exchange. The caller's
// context deadline bounds the wait; nobody answering in time surfaces as a
// domain.ErrReviewTimeout kind.
type ReviewGate struct {
	conn    *nats.Conn
	subject string
}

func NewReviewGate(conn *nats.Conn, subject string) *ReviewGate {
	return &ReviewGate{conn: conn, subject: subject}
}

// GateFromQueue reuses the queue's connection for review traffic.
func GateFromQueue(q *Queue, subject string) *ReviewGate {
	return &ReviewGate{conn: q.conn, subject: subject}
}

func (g *ReviewGate) RequestReview(ctx context.Context, req domain.ReviewRequest) (domain.ReviewResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.ReviewResponse{}, fmt.Errorf("marshal review request: %w", err)
	}

	msg, err := g.conn.RequestWithContext(ctx, g.subject, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoResponders) {
			return domain.ReviewResponse{}, domain.WrapError(domain.ErrReviewTimeout, "await review", err)
		}
		return domain.ReviewResponse{}, fmt.Errorf("request review: %w", err)
	}

	var resp domain.ReviewResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return domain.ReviewResponse{}, fmt.Errorf("decode review response: %w", err)
	}
	if resp.Verdict != domain.ReviewApproved && resp.Verdict != domain.ReviewRejected {
		return domain.ReviewResponse{}, fmt.Errorf("unknown review verdict %q", resp.Verdict)
	}
	return resp, nil
}
