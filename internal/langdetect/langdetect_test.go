package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDetect(t *testing.T) {
	d := NewWhatlang("en", zap.NewNop())

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "английский",
			text: "The weather is beautiful today and we are going to walk in the park with our friends.",
			want: "en",
		},
		{
			name: "украинский",
			text: "Сьогодні чудова погода, і ми підемо гуляти в парк разом із нашими друзями.",
			want: "uk",
		},
		{
			name: "короткий украинский",
			text: "Привіт",
			want: "uk",
		},
		{
			name: "украинский без і",
			text: "Ґанок",
			want: "uk",
		},
		{
			name: "русский",
			text: "Сегодня отличная погода, и мы пойдем гулять в парк вместе с нашими друзьями.",
			want: "ru",
		},
		{
			name: "короткий латинский",
			text: "Hello",
			want: "en",
		},
		{
			name: "без букв",
			text: "12345 ?!",
			want: "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Detect(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectEmpty(t *testing.T) {
	d := NewWhatlang("en", zap.NewNop())

	_, err := d.Detect("   ")
	assert.Error(t, err)
}

func TestDetectWithoutFallback(t *testing.T) {
	d := NewWhatlang("", zap.NewNop())

	_, err := d.Detect("12345 ?!")
	assert.Error(t, err)
}

func TestLooksUkrainian(t *testing.T) {
	assert.True(t, looksUkrainian("Привіт", "sr"))
	assert.True(t, looksUkrainian("Їжак", "be"))
	assert.False(t, looksUkrainian("Прывітанне", "be"))
	assert.False(t, looksUkrainian("Привет", "ru"))
}
