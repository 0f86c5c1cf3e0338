package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"DriverOnboard/internal/draft"
	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/internal/validate"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/phone"
	"DriverOnboard/storage/kv"
)

// SectionService 分区保存流程：校验 -> 保存草稿 -> 提交后端 -> 标记完成 -> 对账
type SectionService struct {
	drafts     *draft.Repository
	tracker    *CompletionTracker
	reconciler *Reconciler
	api        apiclient.Client
	store      kv.Store
	metrics    *metrics.Metrics
	region     string
}

func NewSectionService(drafts *draft.Repository, tracker *CompletionTracker, reconciler *Reconciler, api apiclient.Client, store kv.Store, m *metrics.Metrics, region string) *SectionService {
	return &SectionService{
		drafts:     drafts,
		tracker:    tracker,
		reconciler: reconciler,
		api:        api,
		store:      store,
		metrics:    m,
		region:     region,
	}
}

// Load 读取草稿。本地没有时（重装或登出后）尝试取服务端保存的副本，
// 服务端也没有或请求失败时返回空草稿
func (s *SectionService) Load(ctx context.Context, section model.Section) (interface{}, error) {
	d, ok := draft.NewDraft(section)
	if !ok {
		return nil, errors.NewFieldError(errors.UnknownSection, "", string(section))
	}

	err := s.drafts.Load(ctx, section, d)
	if err == nil {
		return d, nil
	}
	if !stderrors.Is(err, errors.DraftNotFound) {
		return nil, err
	}

	remote, err := s.fetchRemote(ctx, section)
	if err != nil {
		if !apiclient.IsNotFound(err) {
			logger.Logger.Debug("Remote draft unavailable",
				zap.String("section", string(section)),
				zap.Error(err),
			)
		}
		return d, nil
	}
	if remote == nil {
		return d, nil
	}

	if err := s.drafts.Save(ctx, section, remote); err != nil {
		logger.Logger.Warn("Failed to cache remote draft",
			zap.String("section", string(section)),
			zap.Error(err),
		)
	}
	return remote, nil
}

// fetchRemote 个人信息只在本地保存，返回 nil
func (s *SectionService) fetchRemote(ctx context.Context, section model.Section) (interface{}, error) {
	if section == model.SectionPersonalInformation {
		return nil, nil
	}

	driverID, err := s.driverID(ctx)
	if err != nil {
		return nil, err
	}

	switch section {
	case model.SectionPersonalDocuments:
		st, err := s.api.GetDocumentStatus(ctx, driverID)
		if err != nil {
			return nil, err
		}
		return documentsFromStatus(st), nil
	case model.SectionVehicleDetails:
		return s.api.GetVehicleDetails(ctx, driverID)
	case model.SectionBankDetails:
		b, err := s.api.GetBankDetails(ctx, driverID)
		if err != nil {
			return nil, err
		}
		if b.ConfirmAccountNumber == "" {
			b.ConfirmAccountNumber = b.AccountNumber
		}
		return b, nil
	case model.SectionEmergencyDetails:
		e, err := s.api.GetEmergencyDetails(ctx, driverID)
		if err != nil {
			return nil, err
		}
		return s.emergencyDraft(e), nil
	}
	return nil, nil
}

// Reupload 重传单张证件，docType 如 aadhaar-front。成功后更新本地草稿里的路径并对账
func (s *SectionService) Reupload(ctx context.Context, docType, path string) (model.CompletionRecord, error) {
	if !apiclient.IsDocumentType(docType) {
		return s.tracker.Record(ctx), errors.NewFieldError(errors.ValidationFailed, "Unknown document type", docType)
	}
	return s.reupload(ctx, func(driverID string) error {
		return s.api.ReuploadDocument(ctx, driverID, docType, path)
	}, map[string]string{docType: path})
}

// ReuploadPair 同时重传一种证件的正反面，pair 为 aadhaar、pan 或 license
func (s *SectionService) ReuploadPair(ctx context.Context, pair, front, back string) (model.CompletionRecord, error) {
	if !apiclient.IsDocumentPair(pair) {
		return s.tracker.Record(ctx), errors.NewFieldError(errors.ValidationFailed, "Unknown document type", pair)
	}
	return s.reupload(ctx, func(driverID string) error {
		return s.api.ReuploadPair(ctx, driverID, pair, front, back)
	}, map[string]string{pair + "-front": front, pair + "-back": back})
}

func (s *SectionService) reupload(ctx context.Context, send func(driverID string) error, paths map[string]string) (model.CompletionRecord, error) {
	driverID, err := s.driverID(ctx)
	if err != nil {
		return s.tracker.Record(ctx), err
	}
	if err := send(driverID); err != nil {
		logger.Logger.Warn("Failed to re-upload document", zap.Error(err))
		return s.tracker.Record(ctx), err
	}

	var docs model.DocumentsStatus
	if err := s.drafts.Load(ctx, model.SectionPersonalDocuments, &docs); err == nil {
		for docType, p := range paths {
			docs.SetPath(docType, p)
		}
		if err := s.drafts.Save(ctx, model.SectionPersonalDocuments, &docs); err != nil {
			logger.Logger.Warn("Failed to update documents draft", zap.Error(err))
		}
	}

	rec, _ := s.reconciler.ReconcileSession(ctx)
	return rec, nil
}

// Driver 读取服务端保存的完整司机资料
func (s *SectionService) Driver(ctx context.Context) (*dto.Driver, error) {
	driverID, err := s.driverID(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.GetDriver(ctx, driverID)
}

func (s *SectionService) driverID(ctx context.Context) (string, error) {
	id, err := s.store.Get(ctx, model.KeyDriverID)
	if err != nil || id == "" {
		return "", errors.DriverNotFound
	}
	return id, nil
}

func documentsFromStatus(st *dto.DocumentStatus) *model.DocumentsStatus {
	return &model.DocumentsStatus{
		Aadhaar: model.DocumentPair{Uploaded: st.Aadhaar.Front && st.Aadhaar.Back},
		PAN:     model.DocumentPair{Uploaded: st.PAN.Front && st.PAN.Back},
		License: model.DocumentPair{Uploaded: st.License.Front && st.License.Back},
	}
}

// Save 保存一个分区。校验失败不做任何 I/O；提交后端失败时草稿已保存但不标记完成。
// 对账失败不影响结果，返回的是对账后（或本地）的记录。
func (s *SectionService) Save(ctx context.Context, section model.Section, d interface{}) (model.CompletionRecord, error) {
	if err := validate.Section(section, d); err != nil {
		s.metrics.SectionSave(string(section), metrics.ResultInvalid)
		return s.tracker.Record(ctx), err
	}

	if err := s.drafts.Save(ctx, section, d); err != nil {
		s.metrics.StorageError("write")
		s.metrics.SectionSave(string(section), metrics.ResultFailed)
		return s.tracker.Record(ctx), err
	}

	if err := s.submit(ctx, section, d); err != nil {
		s.metrics.SectionSave(string(section), metrics.ResultFailed)
		logger.Logger.Warn("Failed to submit section",
			zap.String("section", string(section)),
			zap.Error(err),
		)
		return s.tracker.Record(ctx), err
	}

	if err := s.tracker.MarkComplete(ctx, section); err != nil {
		return s.tracker.Record(ctx), err
	}
	s.metrics.SectionSave(string(section), metrics.ResultOK)

	// 本地标记先于对账，服务端结果到达后以服务端为准
	rec, _ := s.reconciler.ReconcileSession(ctx)
	return rec, nil
}

// Status 状态页获得焦点时调用：先对账，失败时返回本地记录
func (s *SectionService) Status(ctx context.Context) (model.CompletionRecord, error) {
	return s.reconciler.ReconcileSession(ctx)
}

// LoadAll 全部草稿
func (s *SectionService) LoadAll(ctx context.Context) (draft.Drafts, error) {
	return s.drafts.LoadAll(ctx)
}

func (s *SectionService) identity(ctx context.Context) (string, error) {
	raw, err := s.store.Get(ctx, model.KeyPhoneNumber)
	if err != nil || raw == "" {
		return "", errors.PhoneNumberMissing
	}
	id, err := phone.Normalize(raw, s.region)
	if err != nil {
		return "", errors.NewFieldError(errors.PhoneInvalid, "", model.KeyPhoneNumber)
	}
	return id, nil
}

// submit 个人信息没有后端接口，只保存在本地
func (s *SectionService) submit(ctx context.Context, section model.Section, d interface{}) error {
	if section == model.SectionPersonalInformation {
		return nil
	}

	id, err := s.identity(ctx)
	if err != nil {
		return err
	}

	switch v := d.(type) {
	case *model.DocumentsStatus:
		if err := s.api.SubmitDocuments(ctx, id, v.Files()); err != nil {
			return err
		}
		v.MarkUploaded()
		// 服务端已经收到文件，更新 uploaded 标记失败不影响完成状态
		if err := s.drafts.Save(ctx, section, v); err != nil {
			s.metrics.StorageError("write")
			logger.Logger.Warn("Failed to mark documents uploaded", zap.Error(err))
		}
		return nil
	case *model.VehicleDetails:
		return s.api.SubmitVehicleDetails(ctx, dto.VehicleDetailsRequest{PhoneNumber: id, VehicleDetails: *v})
	case *model.BankDetails:
		return s.api.SubmitBankDetails(ctx, dto.BankDetailsRequest{PhoneNumber: id, BankDetails: *v})
	case *model.EmergencyDetails:
		return s.api.SubmitEmergencyDetails(ctx, s.emergencyRequest(id, v))
	}
	return fmt.Errorf("no submit handler for %s", section)
}

func (s *SectionService) emergencyRequest(id string, v *model.EmergencyDetails) dto.EmergencyDetailsRequest {
	normalize := func(p string) string {
		if p == "" {
			return ""
		}
		if e164, err := phone.Normalize(p, s.region); err == nil {
			return e164
		}
		return p
	}

	return dto.EmergencyDetailsRequest{
		PhoneNumber:                  id,
		PrimaryContactName:           v.PrimaryContactName,
		PrimaryContactRelationship:   v.PrimaryContactRelation,
		PrimaryContactPhone:          normalize(v.PrimaryContactPhone),
		SecondaryContactName:         v.SecondaryContactName,
		SecondaryContactRelationship: v.SecondaryContactRelation,
		SecondaryContactPhone:        normalize(v.SecondaryContactPhone),
		MedicalBloodGroup:            v.BloodGroup,
		MedicalConditions:            v.MedicalConditions,
		Allergies:                    v.Allergies,
	}
}

func (s *SectionService) emergencyDraft(e *dto.EmergencyDetailsRequest) *model.EmergencyDetails {
	national := func(p string) string {
		if p == "" {
			return ""
		}
		return phone.National(p, s.region)
	}

	return &model.EmergencyDetails{
		PrimaryContactName:       e.PrimaryContactName,
		PrimaryContactRelation:   e.PrimaryContactRelationship,
		PrimaryContactPhone:      national(e.PrimaryContactPhone),
		SecondaryContactName:     e.SecondaryContactName,
		SecondaryContactRelation: e.SecondaryContactRelationship,
		SecondaryContactPhone:    national(e.SecondaryContactPhone),
		MedicalConditions:        e.MedicalConditions,
		BloodGroup:               e.MedicalBloodGroup,
		Allergies:                e.Allergies,
	}
}
