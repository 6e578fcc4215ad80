package service

import (
	"context"
	"encoding/json"
	"fmt"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/repository"
	"regexp"

	"go.uber.org/zap"
)

const (
	keyEnableSubscription   = "enable_subscription"
	keySubscriptionDiscount = "subscription_discount"
	keyFrequencies          = "frequencies"
)

var lineBreakRe = regexp.MustCompile(`\r?\n`)

type SettingsService interface {
	Defaults() model.Settings
	// Get never fails: unreadable or malformed stored values fall back to
	// the defaults.
	Get(ctx context.Context) model.Settings
	Save(ctx context.Context, raw map[string]any) (model.Settings, error)
	// Activate seeds or backfills the stored settings.
	Activate(ctx context.Context) error
	FrequencyOptions(ctx context.Context) *FrequencyCatalog
}

type settingsServiceImpl struct {
	logger     *zap.Logger
	optionRepo repository.OptionRepository
}

func NewSettingsService(
	logger *zap.Logger,
	optionRepo repository.OptionRepository,
) SettingsService {
	return &settingsServiceImpl{
		logger:     logger,
		optionRepo: optionRepo,
	}
}

func (s *settingsServiceImpl) Defaults() model.Settings {
	return model.Settings{
		EnableSubscription:   true,
		SubscriptionDiscount: 10,
		Frequencies:          []string{"Every Week", "Every Month"},
	}
}

func (s *settingsServiceImpl) Get(ctx context.Context) model.Settings {
	settings := s.Defaults()

	stored, err := s.loadStored(ctx)
	if err != nil {
		s.logger.Warn("read purchase options settings, using defaults", zap.Error(err))
		return settings
	}

	if v, ok := stored[keyEnableSubscription]; ok {
		settings.EnableSubscription = !isEmpty(v)
	}
	if v, ok := stored[keySubscriptionDiscount]; ok {
		if f, ok := numericValue(v); ok {
			settings.SubscriptionDiscount = f
		}
	}
	if v, ok := stored[keyFrequencies]; ok {
		if frequencies, ok := sanitizeFrequencies(v); ok {
			settings.Frequencies = frequencies
		}
	}
	settings.SubscriptionDiscount = ClampPercent(settings.SubscriptionDiscount)

	return settings
}

func (s *settingsServiceImpl) Save(ctx context.Context, raw map[string]any) (model.Settings, error) {
	settings := model.Settings{
		EnableSubscription:   !isEmpty(raw[keyEnableSubscription]),
		SubscriptionDiscount: s.Defaults().SubscriptionDiscount,
		Frequencies:          []string{},
	}

	if v, ok := raw[keySubscriptionDiscount]; ok {
		settings.SubscriptionDiscount, _ = numericValue(v)
	}
	settings.SubscriptionDiscount = ClampPercent(settings.SubscriptionDiscount)

	if frequencies, ok := sanitizeFrequencies(raw[keyFrequencies]); ok {
		settings.Frequencies = frequencies
	}

	value, err := json.Marshal(settings.Stored())
	if err != nil {
		return model.Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.optionRepo.Set(ctx, model.SettingsOptionName, value); err != nil {
		return model.Settings{}, fmt.Errorf("store settings: %w", err)
	}

	s.logger.Info("purchase options settings saved",
		zap.Bool("enable_subscription", settings.EnableSubscription),
		zap.Float64("subscription_discount", settings.SubscriptionDiscount),
		zap.Int("frequencies", len(settings.Frequencies)),
	)

	return settings, nil
}

func (s *settingsServiceImpl) Activate(ctx context.Context) error {
	raw, exists, err := s.optionRepo.Get(ctx, model.SettingsOptionName)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var stored map[string]any
	if exists {
		if err := json.Unmarshal(raw, &stored); err != nil {
			stored = nil
		}
	}

	var value []byte
	if len(stored) == 0 {
		value, err = json.Marshal(s.Defaults().Stored())
	} else {
		merged := map[string]any{}
		defaults := s.Defaults().Stored()
		merged[keyEnableSubscription] = defaults.EnableSubscription
		merged[keySubscriptionDiscount] = defaults.SubscriptionDiscount
		merged[keyFrequencies] = defaults.Frequencies
		for k, v := range stored {
			merged[k] = v
		}

		frequencies, ok := sanitizeFrequencies(merged[keyFrequencies])
		if !ok {
			frequencies = []string{}
		}
		merged[keyFrequencies] = frequencies

		value, err = json.Marshal(merged)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := s.optionRepo.Set(ctx, model.SettingsOptionName, value); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}

	s.logger.Debug("purchase options settings activated", zap.Bool("seeded", len(stored) == 0))
	return nil
}

func (s *settingsServiceImpl) FrequencyOptions(ctx context.Context) *FrequencyCatalog {
	catalog := BuildFrequencyCatalog(s.Get(ctx).Frequencies)
	if skipped := catalog.Skipped(); len(skipped) > 0 {
		s.logger.Warn("frequency labels skipped, no free key", zap.Strings("labels", skipped))
	}
	return catalog
}

func (s *settingsServiceImpl) loadStored(ctx context.Context) (map[string]any, error) {
	raw, exists, err := s.optionRepo.Get(ctx, model.SettingsOptionName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	return stored, nil
}

// sanitizeFrequencies accepts a newline separated string, a list of strings
// or a list of {label} objects. The second result is false for any other
// shape.
func sanitizeFrequencies(v any) ([]string, bool) {
	var candidates []string
	switch t := v.(type) {
	case string:
		candidates = lineBreakRe.Split(t, -1)
	case []string:
		candidates = t
	case []any:
		candidates = make([]string, 0, len(t))
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				candidates = append(candidates, stringValue(obj["label"]))
				continue
			}
			candidates = append(candidates, stringValue(item))
		}
	default:
		return nil, false
	}

	frequencies := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		label := sanitizeText(candidate)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		frequencies = append(frequencies, label)
	}

	return frequencies, true
}
