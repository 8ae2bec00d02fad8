package nostd

import (
	"errors"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
)

// CustomValidator echo使用的参数校验器，带中文翻译
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

// TransInit 初始化校验错误翻译器
func (v *CustomValidator) TransInit() error {
	zhLocale := zh.New()
	enLocale := en.New()
	uni := ut.New(enLocale, zhLocale)

	trans, found := uni.GetTranslator("zh")
	if !found {
		return errors.New("zh translator not found")
	}

	if err := zhTranslations.RegisterDefaultTranslations(v.Validator, trans); err != nil {
		return err
	}
	v.trans = trans
	return nil
}

// Validate 执行校验，错误信息经翻译器本地化
func (v *CustomValidator) Validate(i interface{}) error {
	err := v.Validator.Struct(i)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && v.trans != nil && len(errs) > 0 {
		return &ValidationError{Message: errs[0].Translate(v.trans)}
	}
	return err
}

// ValidationError 本地化后的校验错误
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
