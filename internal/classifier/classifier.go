package classifier

import (
	"strings"

	"github.com/kisanmitra/advisory/internal/catalog"
	"github.com/kisanmitra/advisory/internal/models"
)

type Classifier interface {
	Classify(content string) models.Category
}

// KeywordClassifier files a question under the first keyword group that has
// any keyword as a substring of the lower-cased text.
type KeywordClassifier struct {
	groups []catalog.Group
}

func NewKeywordClassifier(groups []catalog.Group) *KeywordClassifier {
	return &KeywordClassifier{groups: groups}
}

// Classify never returns a label outside the fixed set; unmatched text is general.
func (c *KeywordClassifier) Classify(content string) models.Category {
	content = strings.ToLower(content)

	for _, group := range c.groups {
		for _, keyword := range group.Keywords {
			if strings.Contains(content, keyword) {
				return group.Category
			}
		}
	}

	return models.CategoryGeneral
}
