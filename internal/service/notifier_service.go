// FILE: internal/service/notifier_service.go
package service

import (
	"context"
	"fmt"

	"ai-specforge-be/internal/pkg/logger"
	"ai-specforge-be/internal/pkg/mailer"
	"ai-specforge-be/pkg/events"
	pktNats "ai-specforge-be/pkg/nats"
)

// INotifierService turns terminal-state events into emails. It lives on
// the far side of NATS so a slow SMTP server never touches job latency.
type INotifierService interface {
	Start() error
}

type notifierService struct {
	subscriber      *pktNats.Subscriber
	emailService    mailer.IEmailService
	notifyEmail     string
	notifyOnFailure bool
	log             logger.ILogger
}

func NewNotifierService(
	subscriber *pktNats.Subscriber,
	emailService mailer.IEmailService,
	notifyEmail string,
	notifyOnFailure bool,
	log logger.ILogger,
) INotifierService {
	return &notifierService{
		subscriber:      subscriber,
		emailService:    emailService,
		notifyEmail:     notifyEmail,
		notifyOnFailure: notifyOnFailure,
		log:             log,
	}
}

func (s *notifierService) Start() error {
	if s.subscriber == nil || s.notifyEmail == "" {
		s.log.Info("notifier", "notifications disabled", nil)
		return nil
	}

	err := s.subscriber.Subscribe("events."+events.TypeAnalysisCompleted, "notifier-completed", s.onCompleted)
	if err != nil {
		return err
	}

	if s.notifyOnFailure {
		err = s.subscriber.Subscribe("events."+events.TypeAnalysisFailed, "notifier-failed", s.onFailed)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *notifierService) onCompleted(ctx context.Context, event events.Event) error {
	data := event.Payload()

	analysisId := fmt.Sprintf("%v", data["analysis_id"])
	score := 0
	if raw, ok := data["quality_score"].(float64); ok {
		score = int(raw)
	}

	if err := s.emailService.SendAnalysisCompleted(s.notifyEmail, analysisId, score); err != nil {
		s.log.Error("notifier", "failed to send completion mail", map[string]interface{}{
			"analysis_id": analysisId,
			"error":       err.Error(),
		})
		return err
	}

	return nil
}

func (s *notifierService) onFailed(ctx context.Context, event events.Event) error {
	data := event.Payload()

	analysisId := fmt.Sprintf("%v", data["analysis_id"])
	reason := fmt.Sprintf("%v", data["reason"])

	if err := s.emailService.SendAnalysisFailed(s.notifyEmail, analysisId, reason); err != nil {
		s.log.Error("notifier", "failed to send failure mail", map[string]interface{}{
			"analysis_id": analysisId,
			"error":       err.Error(),
		})
		return err
	}

	return nil
}
