package service

import (
	"crypto/md5"
	"encoding/hex"
	"purchase-options-demo/internal/model"

	"github.com/gosimple/slug"
)

// FrequencyCatalog is the ordered key to label mapping of the configured
// delivery frequencies.
type FrequencyCatalog struct {
	options []model.FrequencyOption
	index   map[string]int
	skipped []string
}

// FrequencyKey derives the machine key of a label: its slug, or the first 8
// hex characters of its MD5 when the slug is empty.
func FrequencyKey(label string) string {
	if key := slug.Make(label); key != "" {
		return key
	}
	return hashKey(label)
}

func hashKey(label string) string {
	sum := md5.Sum([]byte(label))
	return hex.EncodeToString(sum[:])[:8]
}

// BuildFrequencyCatalog keys every label. A label whose slug is already held
// by an earlier, different label falls back to its hash key; if that is taken
// too, the label is skipped.
func BuildFrequencyCatalog(labels []string) *FrequencyCatalog {
	c := &FrequencyCatalog{
		options: make([]model.FrequencyOption, 0, len(labels)),
		index:   make(map[string]int, len(labels)),
	}

	for _, label := range labels {
		key := FrequencyKey(label)
		if _, taken := c.index[key]; taken {
			key = hashKey(label)
			if _, taken := c.index[key]; taken {
				c.skipped = append(c.skipped, label)
				continue
			}
		}

		c.index[key] = len(c.options)
		c.options = append(c.options, model.FrequencyOption{Key: key, Label: label})
	}

	return c
}

func (c *FrequencyCatalog) Options() []model.FrequencyOption {
	if c == nil {
		return nil
	}
	return c.options
}

func (c *FrequencyCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.options)
}

func (c *FrequencyCatalog) Label(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	i, ok := c.index[key]
	if !ok {
		return "", false
	}
	return c.options[i].Label, true
}

// Skipped lists labels left out because no free key could be derived.
func (c *FrequencyCatalog) Skipped() []string {
	if c == nil {
		return nil
	}
	return c.skipped
}

// First returns the option shoppers fall back to.
func (c *FrequencyCatalog) First() (model.FrequencyOption, bool) {
	if c.Len() == 0 {
		return model.FrequencyOption{}, false
	}
	return c.options[0], true
}
