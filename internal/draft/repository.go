package draft

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"DriverOnboard/internal/model"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/storage/kv"
)

// Repository 各分区草稿的 JSON 读写，没有跨分区事务
type Repository struct {
	store kv.Store
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// Save 序列化后写入，调用方取消 ctx 也不会中断写入
func (r *Repository) Save(ctx context.Context, section model.Section, data interface{}) error {
	key := section.DraftKey()
	if key == "" {
		return errors.NewFieldError(errors.UnknownSection, "", string(section))
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s draft: %w", section, err)
	}

	if err := r.store.Set(context.WithoutCancel(ctx), key, string(raw)); err != nil {
		logger.Logger.Warn("Failed to save draft",
			zap.String("section", string(section)),
			zap.Error(err),
		)
		return fmt.Errorf("save %s draft: %w: %w", section, errors.StorageWriteFailed, err)
	}

	return nil
}

// Load 读取草稿到 dest，从未写入时返回 errors.DraftNotFound，调用方使用默认值
func (r *Repository) Load(ctx context.Context, section model.Section, dest interface{}) error {
	key := section.DraftKey()
	if key == "" {
		return errors.NewFieldError(errors.UnknownSection, "", string(section))
	}

	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if kv.IsNotFound(err) {
			return errors.DraftNotFound
		}
		return fmt.Errorf("load %s draft: %w: %w", section, errors.StorageReadFailed, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode %s draft: %w: %w", section, errors.StorageReadFailed, err)
	}
	return nil
}

// Drafts 全部分区草稿，未保存过的分区为 nil
type Drafts struct {
	Personal  *model.PersonalInfo     `json:"personalInformation,omitempty" yaml:"personalInformation,omitempty"`
	Documents *model.DocumentsStatus  `json:"personalDocuments,omitempty" yaml:"personalDocuments,omitempty"`
	Vehicle   *model.VehicleDetails   `json:"vehicleDetails,omitempty" yaml:"vehicleDetails,omitempty"`
	Bank      *model.BankDetails      `json:"bankDetails,omitempty" yaml:"bankDetails,omitempty"`
	Emergency *model.EmergencyDetails `json:"emergencyDetails,omitempty" yaml:"emergencyDetails,omitempty"`
}

// LoadAll 一次 MultiGet 读取全部草稿，单个分区解码失败只记录日志
func (r *Repository) LoadAll(ctx context.Context) (Drafts, error) {
	var out Drafts

	keys := make([]string, 0, len(model.Sections()))
	for _, s := range model.Sections() {
		keys = append(keys, s.DraftKey())
	}

	values, err := r.store.MultiGet(ctx, keys)
	if err != nil {
		return out, fmt.Errorf("load drafts: %w: %w", errors.StorageReadFailed, err)
	}

	for _, s := range model.Sections() {
		raw, ok := values[s.DraftKey()]
		if !ok {
			continue
		}

		dest, _ := NewDraft(s)
		if err := json.Unmarshal([]byte(raw), dest); err != nil {
			logger.Logger.Warn("Failed to decode draft",
				zap.String("section", string(s)),
				zap.Error(err),
			)
			continue
		}

		switch d := dest.(type) {
		case *model.PersonalInfo:
			out.Personal = d
		case *model.DocumentsStatus:
			out.Documents = d
		case *model.VehicleDetails:
			out.Vehicle = d
		case *model.BankDetails:
			out.Bank = d
		case *model.EmergencyDetails:
			out.Emergency = d
		}
	}

	return out, nil
}

// NewDraft 返回分区对应的空草稿指针
func NewDraft(section model.Section) (interface{}, bool) {
	switch section {
	case model.SectionPersonalInformation:
		return &model.PersonalInfo{}, true
	case model.SectionPersonalDocuments:
		return &model.DocumentsStatus{}, true
	case model.SectionVehicleDetails:
		return &model.VehicleDetails{}, true
	case model.SectionBankDetails:
		return &model.BankDetails{}, true
	case model.SectionEmergencyDetails:
		return &model.EmergencyDetails{}, true
	}
	return nil, false
}
