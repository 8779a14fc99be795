package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/application/port"
	"github.com/hokusei/nippo/internal/domain/entity"
	"github.com/hokusei/nippo/internal/domain/hours"
	"github.com/hokusei/nippo/internal/domain/session"
	"github.com/hokusei/nippo/internal/sheets"
)

// RemediationHint accompanies every submission failure, mirroring the advice
// shown by the form next to the raw error.
const RemediationHint = "Secretsのprivate_keyの改行(\\n)やシートの共有権限を確認してください。"

// DeptTarget binds a department to its sheet store and summary placement.
type DeptTarget struct {
	Store port.SheetStore
	Mode  sheets.SummaryMode
}

// ValidSet is the submittable subset of a session's records with its totals.
// Total covers regular work; AutoTotal covers rows routed to the auxiliary
// destination when the department splits by job type.
type ValidSet struct {
	Records   []entity.WorkRecord
	Total     float64
	AutoTotal float64
}

// SubmitResult is the user-facing outcome of one submit action. Store
// failures land here as a message plus hint instead of an error: nothing a
// destination does may terminate the session.
type SubmitResult struct {
	OK           bool    `json:"ok"`
	Message      string  `json:"message"`
	Hint         string  `json:"hint,omitempty"`
	SubmissionID string  `json:"submission_id,omitempty"`
	RowCount     int     `json:"row_count"`
	TotalHours   float64 `json:"total_hours"`
	AutoHours    float64 `json:"auto_hours,omitempty"`
}

// FormService orchestrates record collection, validation, aggregation and the
// guarded submit workflow for every department form.
type FormService struct {
	targets     map[string]DeptTarget
	writer      *sheets.Writer
	submissions port.SubmissionRepository
	logger      *zap.Logger
}

// NewFormService creates the form service.
func NewFormService(
	targets map[string]DeptTarget,
	writer *sheets.Writer,
	submissions port.SubmissionRepository,
	logger *zap.Logger,
) *FormService {
	return &FormService{
		targets:     targets,
		writer:      writer,
		submissions: submissions,
		logger:      logger,
	}
}

// Collect requests one record per visible slot from the field provider, in
// slot order. Order is significant: the last record of a destination batch
// receives the trailing summary.
func (s *FormService) Collect(p port.FieldProvider, dept entity.Department, slotCount int) []entity.WorkRecord {
	records := make([]entity.WorkRecord, 0, slotCount)
	for i := 1; i <= slotCount; i++ {
		records = append(records, s.collectSlot(p, dept, i))
	}
	return records
}

// collectSlot mirrors one repeated input group of the original forms: the
// job-type select is skipped for miscellaneous work, the job number is
// withheld until a job type is chosen and pre-filled for estimates, and the
// hour text is parsed tolerantly.
func (s *FormService) collectSlot(p port.FieldProvider, dept entity.Department, index int) entity.WorkRecord {
	customer := p.Select(
		fmt.Sprintf("メーカー%d", index),
		dept.CustomerOptions(),
		fmt.Sprintf("customer_%d", index),
	)

	var customerOther string
	if customer == entity.CustomerOther {
		customerOther = p.Text(
			fmt.Sprintf("メーカー名を入力%d", index),
			fmt.Sprintf("new_customer_%d", index),
			"",
		)
	}

	jobType := ""
	if customer != entity.SentinelChoose && customer != entity.CustomerMisc {
		jobType = p.Select(
			fmt.Sprintf("作業内容%d", index),
			dept.JobTypeOptions(),
			fmt.Sprintf("genre_%d", index),
		)
	}

	jobNumber := ""
	if jobType != entity.SentinelChoose {
		def := ""
		if dept.EstimateJobType != "" && jobType == dept.EstimateJobType {
			def = dept.EstimateJobNumber
		}
		jobNumber = strings.ToUpper(p.Text(
			fmt.Sprintf("工番を入力%d", index),
			fmt.Sprintf("number_%d", index),
			def,
		))
	}

	hoursValue := hours.ParseOrZero(p.Text(
		fmt.Sprintf("時間を入力%d", index),
		fmt.Sprintf("time_%d", index),
		"",
	))

	return entity.WorkRecord{
		Slot:          index,
		Customer:      customer,
		CustomerOther: customerOther,
		JobType:       jobType,
		JobNumber:     jobNumber,
		Hours:         hoursValue,
	}
}

// Valid filters the complete records and sums their hours, splitting off the
// auxiliary-routed total when the department has auto routing. Incomplete
// records contribute nothing.
func (s *FormService) Valid(dept entity.Department, records []entity.WorkRecord) ValidSet {
	var vs ValidSet
	for _, rec := range records {
		if !rec.IsComplete() {
			continue
		}
		if dept.HasAutoRouting() && rec.JobType == dept.AutoJobType {
			vs.AutoTotal += rec.Hours
		} else {
			vs.Total += rec.Hours
		}
		vs.Records = append(vs.Records, rec)
	}
	return vs
}

// Submit runs the guarded submit workflow for the session: collect, validate,
// journal, write, resolve. A store failure is converted into a user-facing
// result; the entered field values survive for a retry. The returned error is
// reserved for programming mistakes (unknown department), never for
// destination failures.
func (s *FormService) Submit(ctx context.Context, sess *session.Session) (*SubmitResult, error) {
	dept := sess.Department
	target, ok := s.targets[dept.Code]
	if !ok {
		return nil, fmt.Errorf("no sheet target configured for department %s", dept.Code)
	}

	if sess.Worker() == "" {
		return &SubmitResult{OK: false, Message: "名前を選択してください"}, nil
	}

	if !sess.BeginSubmit() {
		return &SubmitResult{OK: false, Message: "送信処理中です。しばらくお待ちください。"}, nil
	}

	records := s.Collect(sess, dept, sess.SlotCount())
	vs := s.Valid(dept, records)
	if len(vs.Records) == 0 {
		sess.AbortSubmit()
		return &SubmitResult{OK: false, Message: "送信できる作業がありません"}, nil
	}

	if err := sess.MarkSubmitting(); err != nil {
		sess.AbortSubmit()
		return nil, err
	}

	batch := entity.SubmissionBatch{
		ID:         uuid.NewString(),
		Department: dept.Code,
		WorkDate:   sess.Date(),
		Worker:     sess.Worker(),
		Records:    vs.Records,
	}

	sub := &entity.Submission{
		ID:         batch.ID,
		Department: batch.Department,
		WorkDate:   batch.WorkDate,
		Worker:     batch.Worker,
		RowCount:   len(batch.Records),
		TotalHours: vs.Total,
		AutoHours:  vs.AutoTotal,
		Status:     entity.SubmissionStatusPending,
	}
	s.journal(ctx, func() error { return s.submissions.Create(ctx, sub) })

	batches := s.route(dept, target.Mode, vs)
	if err := s.writer.Write(ctx, target.Store, batch.WorkDate, batch.Worker, batches); err != nil {
		s.logger.Error("Submission failed",
			zap.String("submission_id", sub.ID),
			zap.String("department", dept.Code),
			zap.Error(err))
		s.journal(ctx, func() error {
			return s.submissions.MarkStatus(ctx, sub.ID, entity.SubmissionStatusFailed, err.Error())
		})

		sess.EndSubmit(false, err.Error())
		return &SubmitResult{
			OK:           false,
			Message:      fmt.Sprintf("送信に失敗しました: %v", err),
			Hint:         RemediationHint,
			SubmissionID: sub.ID,
		}, nil
	}

	// The rows are durable now; nothing below may surface as a failure.
	s.journal(ctx, func() error {
		return s.submissions.MarkStatus(ctx, sub.ID, entity.SubmissionStatusWritten, "")
	})
	sess.EndSubmit(true, "")

	s.logger.Info("Submission written",
		zap.String("submission_id", sub.ID),
		zap.String("department", dept.Code),
		zap.Int("rows", sub.RowCount),
		zap.Float64("total_hours", sub.TotalHours),
		zap.Float64("auto_hours", sub.AutoHours))

	return &SubmitResult{
		OK:           true,
		Message:      "作業内容を送信しました。お疲れ様でした！",
		SubmissionID: sub.ID,
		RowCount:     sub.RowCount,
		TotalHours:   sub.TotalHours,
		AutoHours:    sub.AutoHours,
	}, nil
}

// route partitions the valid set into per-destination batches. The main
// destination carries the trailing summary; auxiliary rows get none, matching
// the original machining sheet.
func (s *FormService) route(dept entity.Department, mode sheets.SummaryMode, vs ValidSet) []sheets.RowBatch {
	if !dept.HasAutoRouting() {
		return []sheets.RowBatch{{
			Destination: port.DestinationMain,
			Records:     vs.Records,
			Total:       vs.Total,
			Summary:     true,
			Mode:        mode,
		}}
	}

	var main, auto []entity.WorkRecord
	for _, rec := range vs.Records {
		if rec.JobType == dept.AutoJobType {
			auto = append(auto, rec)
		} else {
			main = append(main, rec)
		}
	}
	return []sheets.RowBatch{
		{Destination: port.DestinationMain, Records: main, Total: vs.Total, Summary: true, Mode: mode},
		{Destination: port.DestinationAuto, Records: auto, Total: vs.AutoTotal, Summary: false},
	}
}

// journal runs a submission-log write, logging and swallowing any error. The
// journal is an observability aid; it never blocks or fails a submission.
func (s *FormService) journal(ctx context.Context, fn func() error) {
	if s.submissions == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("Submission journal write failed", zap.Error(err))
	}
}
