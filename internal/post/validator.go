package post

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/blog/internal/model"
)

// TitleMaxLength はタイトルの最大文字数（rune数）。
const TitleMaxLength = 200

// フォームのフィールド名
const (
	FieldTitle   = "title"
	FieldContent = "content"
)

// Validator は記事フォームの入力検証インターフェース。
type Validator interface {
	// Validate はフォーム値を検証し、正規化済みの入力とフィールドエラーを返す。
	// エラーがある場合でも、再表示用に正規化済みの入力を返す。
	Validate(raw url.Values) (model.PostInput, model.FieldErrors)
}

// FormValidator は記事フォームの標準的なValidator実装。
type FormValidator struct{}

// NewFormValidator はFormValidatorを生成する。
func NewFormValidator() *FormValidator {
	return &FormValidator{}
}

// Validate はタイトルと本文を検証する。
// 前後の空白は除去し、空の場合は必須エラーとする。
func (v *FormValidator) Validate(raw url.Values) (model.PostInput, model.FieldErrors) {
	input := model.PostInput{
		Title:   strings.TrimSpace(raw.Get(FieldTitle)),
		Content: strings.TrimSpace(raw.Get(FieldContent)),
	}
	errs := model.FieldErrors{}

	if input.Title == "" {
		errs.Add(FieldTitle, "タイトルは必須です。")
	} else if n := utf8.RuneCountInString(input.Title); n > TitleMaxLength {
		errs.Add(FieldTitle, fmt.Sprintf("タイトルは%d文字以内で入力してください（現在%d文字）。", TitleMaxLength, n))
	}

	if input.Content == "" {
		errs.Add(FieldContent, "本文は必須です。")
	}

	return input, errs
}

// compile-time interface check
var _ Validator = (*FormValidator)(nil)
