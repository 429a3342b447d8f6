// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package querybuild

import "strings"

// meshTable maps biomedical and computing concepts to MeSH-style synonym
// lists. A concept hits when it is a substring of the lowercased topic.
var meshTable = []struct {
	concept string
	terms   []string
}{
	{"machine learning", []string{"machine learning", "artificial intelligence", "deep learning", "neural networks"}},
	{"healthcare", []string{"healthcare", "medical", "clinical", "health", "medicine"}},
	{"cancer", []string{"cancer", "oncology", "tumor", "neoplasm", "carcinoma"}},
	{"diabetes", []string{"diabetes", "diabetic", "glucose", "insulin"}},
	{"cardiovascular", []string{"cardiovascular", "heart", "cardiac", "vascular"}},
	{"mental health", []string{"mental health", "psychiatry", "psychology", "depression", "anxiety"}},
	{"covid", []string{"covid", "sars-cov-2", "coronavirus", "pandemic"}},
	{"drug", []string{"drug", "pharmaceutical", "medication", "therapy", "treatment"}},
	{"diagnosis", []string{"diagnosis", "diagnostic", "screening", "detection"}},
	{"treatment", []string{"treatment", "therapy", "intervention", "management"}},
}

// acronyms expands a whole term or word to its long forms and close synonyms.
var acronyms = map[string][]string{
	"ai":         {"artificial intelligence", "machine learning"},
	"ml":         {"machine learning", "artificial intelligence"},
	"dl":         {"deep learning", "neural networks"},
	"nlp":        {"natural language processing", "text mining"},
	"cv":         {"computer vision", "image processing"},
	"healthcare": {"medical", "clinical", "health"},
	"cancer":     {"oncology", "tumor", "neoplasm"},
	"diabetes":   {"diabetic", "glucose", "insulin"},
}

type domain struct {
	// phrases trigger on substring match; words trigger on whole-word match.
	phrases []string
	words   []string
	terms   []string
}

func (d domain) matches(lowerTopic string) bool {
	for _, p := range d.phrases {
		if strings.Contains(lowerTopic, p) {
			return true
		}
	}
	if len(d.words) == 0 {
		return false
	}
	for _, w := range strings.FieldsFunc(lowerTopic, isSeparator) {
		for _, want := range d.words {
			if w == want {
				return true
			}
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
}

var domains = []domain{
	{
		phrases: []string{"healthcare", "medical"},
		terms: []string{
			"clinical decision support",
			"electronic health records",
			"medical imaging",
			"patient monitoring",
			"drug discovery",
			"precision medicine",
			"telemedicine",
			"health informatics",
		},
	},
	{
		phrases: []string{"machine learning"},
		words:   []string{"ai"},
		terms: []string{
			"supervised learning",
			"unsupervised learning",
			"reinforcement learning",
			"feature engineering",
			"model validation",
			"cross-validation",
			"hyperparameter tuning",
			"ensemble methods",
		},
	},
	{
		phrases: []string{"deep learning"},
		terms: []string{
			"convolutional neural networks",
			"recurrent neural networks",
			"transformer",
			"attention mechanism",
			"transfer learning",
			"fine-tuning",
			"data augmentation",
		},
	},
}

var related = []struct {
	trigger string
	terms   []string
}{
	{"healthcare", []string{"clinical", "medical", "health", "patient"}},
	{"machine learning", []string{"algorithm", "model", "prediction", "classification"}},
}
