package langdetect

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"
)

// Detector определяет язык текста и возвращает код ISO 639-1
type Detector interface {
	Detect(text string) (string, error)
}

// На латинице по нескольким буквам триграммы не различают языки,
// такой текст сразу получает язык по умолчанию.
const minLatinLetters = 12

// Whatlang реализует Detector на основе whatlanggo
type Whatlang struct {
	fallback string
	logger   *zap.Logger
}

// NewWhatlang создает детектор. fallback используется, когда
// латинский текст слишком короткий для надежного определения.
func NewWhatlang(fallback string, logger *zap.Logger) *Whatlang {
	return &Whatlang{
		fallback: fallback,
		logger:   logger,
	}
}

// Detect определяет язык текста
func (d *Whatlang) Detect(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("пустой текст")
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()

	// Для нелатинских письменностей кандидатов мало, поэтому
	// результату доверяем даже при низкой уверенности.
	if info.Script == unicode.Cyrillic && code != "uk" && looksUkrainian(text, code) {
		d.logger.Debug("язык уточнен по украинским буквам",
			zap.String("candidate", code),
			zap.Float64("confidence", info.Confidence))
		return "uk", nil
	}
	if code != "" && info.Script != unicode.Latin {
		d.logger.Debug("язык определен по письменности",
			zap.String("language", code),
			zap.Float64("confidence", info.Confidence))
		return code, nil
	}
	if code != "" && info.IsReliable() && countLetters(text) >= minLatinLetters {
		d.logger.Debug("язык определен",
			zap.String("language", code),
			zap.Float64("confidence", info.Confidence))
		return code, nil
	}

	if d.fallback == "" {
		return "", fmt.Errorf("не удалось определить язык текста")
	}

	d.logger.Debug("язык не определен надежно, используем язык по умолчанию",
		zap.String("candidate", code),
		zap.Float64("confidence", info.Confidence),
		zap.String("fallback", d.fallback))

	return d.fallback, nil
}

func countLetters(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// looksUkrainian проверяет буквы, которые в кириллице есть только в украинском
// (ї, є, ґ), и і, которую кроме украинского используют белорусский и казахский.
// На коротких словах вроде "Привіт" триграммы путают украинский с сербским.
func looksUkrainian(text, candidate string) bool {
	if strings.ContainsAny(text, "їЇєЄґҐ") {
		return true
	}
	if candidate == "be" || candidate == "kk" {
		return false
	}
	return strings.ContainsAny(text, "іІ")
}
