package classifier

import (
	"testing"

	"github.com/kisanmitra/advisory/internal/catalog"
	"github.com/kisanmitra/advisory/internal/models"
	"github.com/stretchr/testify/assert"
)

func newClassifier() *KeywordClassifier {
	return NewKeywordClassifier(catalog.MustLoad().Groups())
}

func TestClassify(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		name  string
		query string
		want  models.Category
	}{
		{"fertilizer only", "fertilizer", models.CategoryFertilizer},
		{"crop beats pest", "my rice has a pest problem", models.CategoryCrop},
		{"crop beats market", "tomato price", models.CategoryCrop},
		{"price contains rice", "cotton price today", models.CategoryCrop},
		{"tomato with yellow spots", "My tomato leaves have yellow spots", models.CategoryCrop},
		{"pest", "there is fungus on the leaves", models.CategoryPest},
		{"weather", "will it rain next week", models.CategoryWeather},
		{"market", "where can I sell at a good rate", models.CategoryMarket},
		{"subsidy", "how do I apply for PM Kisan", models.CategorySubsidy},
		{"case insensitive", "UREA dosage?", models.CategoryFertilizer},
		{"malayalam crop", "എന്റെ കൃഷി", models.CategoryCrop},
		{"malayalam weather", "മഴ എപ്പോൾ", models.CategoryWeather},
		{"malayalam subsidy", "സർക്കാർ സഹായം", models.CategorySubsidy},
		{"no match", "hello there", models.CategoryGeneral},
		{"empty", "", models.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.query))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newClassifier()
	inputs := []string{"fertilizer", "pest and price", "nothing relevant", "weather drought"}

	for _, in := range inputs {
		first := c.Classify(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.Classify(in))
		}
		assert.True(t, first.Valid())
	}
}

func TestClassify_SubstringMatch(t *testing.T) {
	// "farm" is a crop keyword, so "farmer" matches crop.
	assert.Equal(t, models.CategoryCrop, newClassifier().Classify("I am a farmer"))
}

func TestClassify_CustomGroups(t *testing.T) {
	c := NewKeywordClassifier([]catalog.Group{
		{Category: models.CategoryMarket, Keywords: []string{"mandi"}},
		{Category: models.CategoryCrop, Keywords: []string{"mandi", "paddy"}},
	})

	assert.Equal(t, models.CategoryMarket, c.Classify("Paddy at the MANDI"))
	assert.Equal(t, models.CategoryCrop, c.Classify("paddy"))
	assert.Equal(t, models.CategoryGeneral, NewKeywordClassifier(nil).Classify("paddy"))
}
