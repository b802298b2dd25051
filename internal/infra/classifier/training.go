package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultAlpha is the Laplace smoothing used by LoadBayes.
const DefaultAlpha = 1.0

// DefaultExamples is a small Urdu seed set, one example per category of the
// default category table.
func DefaultExamples() []Example {
	return []Example{
		{Text: "پاکستان کرکٹ ٹیم نے میچ جیت لیا", Category: "کھیل"},
		{Text: "نئی ٹیکنالوجی نے مارکیٹ میں تہلکہ مچا دیا", Category: "ٹیکنالوجی"},
		{Text: "وزیراعظم نے نئی پالیسی کا اعلان کیا", Category: "سیاست"},
		{Text: "ہسپتالوں میں نئے آلات کی تنصیب", Category: "صحت"},
		{Text: "نئی فلم نے باکس آفس پر ریکارڈ توڑ دیے", Category: "فن و ثقافت"},
		{Text: "اسٹاک مارکیٹ میں تیزی", Category: "کاروبار"},
		{Text: "نئی سائنسی تحقیق", Category: "سائنس"},
		{Text: "عالمی کانفرنس میں شرکاء", Category: "عالمی"},
	}
}

// trainingFile is the YAML layout of a training set:
//
//	examples:
//	  - text: پاکستان کرکٹ ٹیم نے میچ جیت لیا
//	    category: کھیل
type trainingFile struct {
	Examples []Example `yaml:"examples"`
}

// LoadExamples reads a training set. An empty path yields DefaultExamples.
func LoadExamples(path string) ([]Example, error) {
	if path == "" {
		return DefaultExamples(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training file: %w", err)
	}
	var f trainingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse training file: %w", err)
	}
	return f.Examples, nil
}

// LoadBayes trains a Bayes classifier from the training set at path.
func LoadBayes(path string) (*Bayes, error) {
	examples, err := LoadExamples(path)
	if err != nil {
		return nil, err
	}
	b, err := Train(examples, DefaultAlpha)
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}
	return b, nil
}
