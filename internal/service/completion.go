package service

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"DriverOnboard/internal/model"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/notify"
	"DriverOnboard/storage/kv"
)

const persistFailedMessage = "An error occurred while updating completion status."

// CompletionTracker 维护五个分区的完成记录：内存缓存加写穿透到本地存储。
// 持久化失败只提示，不影响当前会话里的内存状态。
type CompletionTracker struct {
	store    kv.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics

	assumePersonalInfo bool

	mu     sync.Mutex
	record model.CompletionRecord
	loaded bool
	// 读取失败期间的修改，读取成功后合并到存储里的记录上
	overrides map[model.Section]bool
}

func NewCompletionTracker(store kv.Store, notifier notify.Notifier, m *metrics.Metrics, assumePersonalInfo bool) *CompletionTracker {
	return &CompletionTracker{
		store:              store,
		notifier:           notifier,
		metrics:            m,
		assumePersonalInfo: assumePersonalInfo,
		record:             model.DefaultCompletionRecord(assumePersonalInfo),
	}
}

// storedRecord 区分缺失字段和 false
type storedRecord struct {
	PersonalInformation *bool `json:"personalInformation"`
	PersonalDocuments   *bool `json:"personalDocuments"`
	VehicleDetails      *bool `json:"vehicleDetails"`
	BankDetails         *bool `json:"bankDetails"`
	EmergencyDetails    *bool `json:"emergencyDetails"`
}

func (t *CompletionTracker) decode(raw string) (model.CompletionRecord, error) {
	var st storedRecord
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return model.CompletionRecord{}, err
	}

	r := model.DefaultCompletionRecord(t.assumePersonalInfo)
	pick := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	pick(&r.PersonalInformation, st.PersonalInformation)
	pick(&r.PersonalDocuments, st.PersonalDocuments)
	pick(&r.VehicleDetails, st.VehicleDetails)
	pick(&r.BankDetails, st.BankDetails)
	pick(&r.EmergencyDetails, st.EmergencyDetails)
	return r, nil
}

// loadLocked 首次访问时从存储读取，调用方持有 mu
func (t *CompletionTracker) loadLocked(ctx context.Context) {
	if t.loaded {
		return
	}

	merged, err := t.readLocked(ctx)
	if err != nil {
		// 读取失败不缓存结果，下次再试
		logger.Logger.Warn("Failed to load completion status", zap.Error(err))
		t.metrics.StorageError("read")
		notify.Error(ctx, t.notifier, errors.StorageReadFailed)
		return
	}
	if merged {
		t.persistLocked(ctx)
	}
}

// readLocked 读取存储里的记录并合并 overrides，返回是否有合并。
// 失败时 loaded 保持 false，内存记录不变。
func (t *CompletionTracker) readLocked(ctx context.Context) (bool, error) {
	r := model.DefaultCompletionRecord(t.assumePersonalInfo)

	raw, err := t.store.Get(ctx, model.KeyCompletionStatus)
	switch {
	case err == nil:
		decoded, decodeErr := t.decode(raw)
		if decodeErr != nil {
			logger.Logger.Warn("Corrupt completion status, using defaults", zap.Error(decodeErr))
		} else {
			r = decoded
		}
	case kv.IsNotFound(err):
	default:
		return false, err
	}

	merged := len(t.overrides) > 0
	for s, done := range t.overrides {
		r.Set(s, done)
	}
	t.overrides = nil
	t.record = r
	t.loaded = true
	return merged, nil
}

// setLocked 修改内存记录，未加载时同时记入 overrides
func (t *CompletionTracker) setLocked(s model.Section, done bool) {
	t.record.Set(s, done)
	if t.loaded {
		return
	}
	if t.overrides == nil {
		t.overrides = make(map[model.Section]bool)
	}
	t.overrides[s] = done
}

// persistLocked 写回整条记录。未成功读取过存储时先重读合并，
// 重读仍失败则不写，避免默认记录覆盖已保存的标记。
func (t *CompletionTracker) persistLocked(ctx context.Context) {
	if !t.loaded {
		if _, err := t.readLocked(ctx); err != nil {
			logger.Logger.Warn("Skip persisting completion status, stored record unreadable", zap.Error(err))
			t.metrics.StorageError("read")
			return
		}
	}

	raw, err := json.Marshal(t.record)
	if err != nil {
		logger.Logger.Error("Failed to encode completion status", zap.Error(err))
		return
	}

	if err := t.store.Set(context.WithoutCancel(ctx), model.KeyCompletionStatus, string(raw)); err != nil {
		logger.Logger.Warn("Failed to persist completion status", zap.Error(err))
		t.metrics.StorageError("write")
		if t.notifier != nil {
			t.notifier.Toast(ctx, persistFailedMessage)
		}
	}
}

// Record 当前本地记录
func (t *CompletionTracker) Record(ctx context.Context) model.CompletionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked(ctx)
	return t.record
}

// Ensure 进入注册流程时调用，记录不存在则写入默认值
func (t *CompletionTracker) Ensure(ctx context.Context) model.CompletionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked(ctx)
	if _, err := t.store.Get(ctx, model.KeyCompletionStatus); kv.IsNotFound(err) {
		t.persistLocked(ctx)
	}
	return t.record
}

// MarkComplete 幂等地把一个分区标记为完成并写回整条记录
func (t *CompletionTracker) MarkComplete(ctx context.Context, section model.Section) error {
	if !section.Valid() {
		return errors.NewFieldError(errors.UnknownSection, "", string(section))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked(ctx)
	t.setLocked(section, true)
	t.persistLocked(ctx)

	logger.Logger.Debug("Section marked complete", zap.String("section", string(section)))
	return nil
}

func (t *CompletionTracker) IsFullyComplete(ctx context.Context) bool {
	return t.Record(ctx).IsFullyComplete()
}

// PendingSections 未完成分区，按规范顺序
func (t *CompletionTracker) PendingSections(ctx context.Context) []model.Section {
	return t.Record(ctx).Pending()
}

// ApplyServer 服务端报告的分区以服务端为准，未报告的保持本地值。
// keepPersonalInfo 为 true 时不让服务端覆盖 personalInformation。
func (t *CompletionTracker) ApplyServer(ctx context.Context, reported map[model.Section]bool, keepPersonalInfo bool) model.CompletionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked(ctx)

	changed := false
	for s, done := range reported {
		if keepPersonalInfo && s == model.SectionPersonalInformation {
			continue
		}
		if t.record.Get(s) != done {
			t.setLocked(s, done)
			changed = true
		}
	}
	if changed {
		t.persistLocked(ctx)
	}
	return t.record
}

// Replace 整体替换记录
func (t *CompletionTracker) Replace(ctx context.Context, r model.CompletionRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.record = r
	t.loaded = true
	t.overrides = nil
	t.persistLocked(ctx)
}

// Reset 登出后回到默认记录，存储由调用方清理
func (t *CompletionTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.record = model.DefaultCompletionRecord(t.assumePersonalInfo)
	t.loaded = false
	t.overrides = nil
}
