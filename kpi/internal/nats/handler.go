package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-kpi/common/messaging"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/metrics"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/service"
)

// Handler serves host KPI jobs received over NATS.
type Handler struct {
	client messaging.Client
	svc    *service.KPIService
	subs   []messaging.Subscription
	logger *slog.Logger
}

func NewHandler(client messaging.Client, svc *service.KPIService) *Handler {
	return &Handler{
		client: client,
		svc:    svc,
		subs:   make([]messaging.Subscription, 0),
		logger: slog.Default().With(slog.String("component", "nats-handler")),
	}
}

// Start joins the KPI worker queue group.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.client.QueueSubscribe(
		messaging.SubjectKPIJobsHostDetails,
		messaging.QueueKPIWorkers,
		h.handleHostDetailsJob,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to host details jobs: %w", err)
	}
	h.subs = append(h.subs, sub)

	h.logger.Info("NATS handler started",
		slog.String("subject", messaging.SubjectKPIJobsHostDetails),
		slog.String("queue_group", messaging.QueueKPIWorkers))
	return nil
}

// Stop unsubscribes from all NATS subjects.
func (h *Handler) Stop() error {
	h.logger.Info("Stopping NATS handler")
	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn("Failed to unsubscribe", slog.String("error", err.Error()))
		}
	}
	h.subs = nil
	return nil
}

func (h *Handler) handleHostDetailsJob(ctx context.Context, msg *messaging.Message) error {
	start := time.Now()

	var req HostDetailsJobRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.Error("Failed to unmarshal host details job", slog.String("error", err.Error()))
		metrics.RequestsTotal.WithLabelValues("nats", service.OutcomeInvalid).Inc()
		return h.reply(ctx, msg.Reply, service.OutcomeInvalid, &HostDetailsJobResponse{
			Error:     fmt.Sprintf("invalid job payload: %v", err),
			ErrorCode: service.OutcomeInvalid,
		})
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	h.logger.Debug("Processing host details job",
		slog.String("job_id", req.JobID),
		slog.String("host", req.HostName))

	result, err := h.svc.HostDetails(ctx, &req.HostDetailsRequest)
	outcome := service.Outcome(err)
	metrics.RequestsTotal.WithLabelValues("nats", outcome).Inc()

	resp := &HostDetailsJobResponse{
		JobID:  req.JobID,
		TookMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorCode = outcome
		h.logger.Error("Host details job failed",
			slog.String("job_id", req.JobID),
			slog.String("error", err.Error()))
	} else {
		resp.Success = true
		resp.Result = result
		h.logger.Info("Host details job completed",
			slog.String("job_id", req.JobID),
			slog.Int64("took_ms", resp.TookMs))
	}

	if err := h.reply(ctx, msg.Reply, outcome, resp); err != nil {
		return err
	}
	return h.publish(ctx, messaging.HostDetailsResultSubject(req.JobID), outcome, resp)
}

func (h *Handler) reply(ctx context.Context, subject, outcome string, resp *HostDetailsJobResponse) error {
	if subject == "" {
		return nil
	}
	return h.publish(ctx, subject, outcome, resp)
}

// publish sends resp with the job id and outcome as headers, so consumers
// can route on them without decoding the body.
func (h *Handler) publish(ctx context.Context, subject, outcome string, resp *HostDetailsJobResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal job response: %w", err)
	}
	msg := &messaging.Message{
		Subject: subject,
		Data:    data,
		Metadata: map[string]string{
			messaging.HeaderOutcome: outcome,
		},
	}
	if resp.JobID != "" {
		msg.Metadata[messaging.HeaderJobID] = resp.JobID
	}
	if err := h.client.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}
