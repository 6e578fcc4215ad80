package model

const SettingsOptionName = "purchase_options_settings"

type Settings struct {
	EnableSubscription   bool     `json:"enable_subscription"`
	SubscriptionDiscount float64  `json:"subscription_discount"`
	Frequencies          []string `json:"frequencies"`
}

// StoredSettings is the persisted shape of Settings.
type StoredSettings struct {
	EnableSubscription   int      `json:"enable_subscription"` // 0 | 1
	SubscriptionDiscount float64  `json:"subscription_discount"`
	Frequencies          []string `json:"frequencies"`
}

func (s Settings) Stored() StoredSettings {
	enabled := 0
	if s.EnableSubscription {
		enabled = 1
	}

	frequencies := s.Frequencies
	if frequencies == nil {
		frequencies = []string{}
	}

	return StoredSettings{
		EnableSubscription:   enabled,
		SubscriptionDiscount: s.SubscriptionDiscount,
		Frequencies:          frequencies,
	}
}

type FrequencyOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}
