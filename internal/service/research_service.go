// FILE: internal/service/research_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"deep-research-be/internal/dto"
	"deep-research-be/internal/model"
	"deep-research-be/internal/pkg/logger"
	"deep-research-be/internal/pkg/mailer"
	"deep-research-be/internal/repository/contract"
	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/events"
	pktNats "deep-research-be/pkg/nats"
	"deep-research-be/pkg/research"
	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/research/session"
	"deep-research-be/pkg/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrSessionNotFound distinguishes an unknown id from a session that
// simply has no new records yet.
var ErrSessionNotFound = errors.New("research session not found")

type IResearchService interface {
	Start(req *dto.StartResearchRequest) (*dto.StartResearchResponse, error)
	Poll(sessionID string, cursor int) (*dto.PollUpdatesResponse, error)
	Snapshot(sessionID string) (*dto.SessionSnapshotResponse, error)
	Session(sessionID string) (*store.Session, bool)
}

type researchService struct {
	registry  *session.Registry
	runner    agents.IRunner
	publisher IPublisherService

	// Optional completion sinks; each may be nil.
	natsPub      *pktNats.Publisher
	archiveRepo  contract.ReportArchiveRepository
	emailService mailer.IEmailService
	reportEmail  string

	sysLogger      logger.ILogger
	pipelineLogger *log.Logger
}

func NewResearchService(
	registry *session.Registry,
	runner agents.IRunner,
	publisher IPublisherService,
	natsPub *pktNats.Publisher,
	archiveRepo contract.ReportArchiveRepository,
	emailService mailer.IEmailService,
	reportEmail string,
	sysLogger logger.ILogger,
	pipelineLogger *log.Logger,
) IResearchService {
	return &researchService{
		registry:       registry,
		runner:         runner,
		publisher:      publisher,
		natsPub:        natsPub,
		archiveRepo:    archiveRepo,
		emailService:   emailService,
		reportEmail:    reportEmail,
		sysLogger:      sysLogger,
		pipelineLogger: pipelineLogger,
	}
}

// Start creates a session and launches the pipeline in the background.
// The caller tails progress through Poll or the live transports.
func (s *researchService) Start(req *dto.StartResearchRequest) (*dto.StartResearchResponse, error) {
	variant := research.VariantByName(req.Variant)
	sess := s.registry.Create(req.Query, variant.Name)

	sess.Log.SetNotifier(func(record progress.UpdateRecord) {
		s.publisher.PublishUpdate(sess.ID, record)
	})

	orchestrator := research.NewOrchestrator(s.runner, variant, s.pipelineLogger)

	s.sysLogger.Info("Research", "Session started", map[string]interface{}{
		"session_id": sess.ID,
		"variant":    variant.Name,
	})

	// The run outlives the HTTP request that started it.
	go s.execute(context.Background(), orchestrator, sess)

	return &dto.StartResearchResponse{ResearchId: sess.ID}, nil
}

func (s *researchService) execute(ctx context.Context, orchestrator *research.Orchestrator, sess *store.Session) {
	if err := orchestrator.Run(ctx, sess); err != nil {
		s.sysLogger.Error("Research", "Pipeline failed", map[string]interface{}{
			"session_id": sess.ID,
			"stage":      sess.Stage,
			"error":      err.Error(),
		})
		return
	}

	s.onCompleted(ctx, sess)
}

// onCompleted runs the optional completion sinks. None of them can fail
// the session; the report already exists.
func (s *researchService) onCompleted(ctx context.Context, sess *store.Session) {
	if s.natsPub != nil {
		event := events.NewResearchCompletedEvent(sess.ID, sess.Variant, sess.Query, sess.Report.ShortSummary)
		if err := s.natsPub.Publish(ctx, event); err != nil {
			s.sysLogger.Warn("Research", "Failed to publish completion event", map[string]interface{}{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
	}

	if s.archiveRepo != nil {
		if err := s.archive(ctx, sess); err != nil {
			s.sysLogger.Warn("Research", "Failed to archive report", map[string]interface{}{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
	}

	if s.emailService != nil && s.reportEmail != "" {
		if err := s.emailService.SendReport(s.reportEmail, sess.Query, sess.Report); err != nil {
			s.sysLogger.Warn("Research", "Failed to email report", map[string]interface{}{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
	}
}

func (s *researchService) archive(ctx context.Context, sess *store.Session) error {
	followUps, err := json.Marshal(sess.Report.FollowUpQuestions)
	if err != nil {
		return err
	}

	archive := &model.ReportArchive{
		SessionId:      sess.ID,
		Variant:        sess.Variant,
		Query:          sess.Query,
		ShortSummary:   sess.Report.ShortSummary,
		MarkdownReport: sess.Report.MarkdownReport,
		FollowUpQuestions: datatypes.JSON(followUps),
	}
	if sess.Verification != nil {
		verified := sess.Verification.Verified
		archive.Verified = &verified
		archive.Issues = sess.Verification.Issues
	}

	if err := s.archiveRepo.Create(ctx, archive); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

// Poll returns records at index >= cursor plus the new cursor.
func (s *researchService) Poll(sessionID string, cursor int) (*dto.PollUpdatesResponse, error) {
	sess, found := s.registry.Get(sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}

	records, next := sess.Log.ReadFrom(cursor)
	return &dto.PollUpdatesResponse{
		Updates: records,
		Cursor:  next,
	}, nil
}

func (s *researchService) Snapshot(sessionID string) (*dto.SessionSnapshotResponse, error) {
	sess, found := s.registry.Get(sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}

	snapshot := &dto.SessionSnapshotResponse{
		ResearchId: sess.ID,
		Variant:    sess.Variant,
		Query:      sess.Query,
		Stage:      sess.Stage,
	}
	if sess.Report != nil {
		snapshot.ShortSummary = sess.Report.ShortSummary
		snapshot.MarkdownReport = sess.Report.MarkdownReport
		snapshot.FollowUpQuestions = sess.Report.FollowUpQuestions
	}
	if sess.Verification != nil {
		verified := sess.Verification.Verified
		snapshot.Verified = &verified
		snapshot.Issues = sess.Verification.Issues
	}
	return snapshot, nil
}

func (s *researchService) Session(sessionID string) (*store.Session, bool) {
	return s.registry.Get(sessionID)
}
