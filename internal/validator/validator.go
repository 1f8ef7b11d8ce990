package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/formbuilder/internal/model"
)

// TagQuestionKind validates a question kind in its canonical or legacy
// spelling.
const TagQuestionKind = "question_kind"

var (
	trans     ut.Translator
	setupOnce sync.Once
)

// Setup registers English translations and the form-specific rules on
// Gin's binding engine. Calling it again is a no-op.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation(TagQuestionKind, func(fl govalidator.FieldLevel) bool {
			_, err := model.ParseQuestionKind(fl.Field().String())
			return err == nil
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		_ = v.RegisterTranslation(TagQuestionKind, trans,
			func(t ut.Translator) error {
				return t.Add(TagQuestionKind, "{0} must be ShortAnswer or TrueFalse", true)
			},
			func(t ut.Translator, fe govalidator.FieldError) string {
				msg, _ := t.T(TagQuestionKind, fe.Field())
				return msg
			})
	})
}

// TranslateErrors maps a binding error to field name -> message. Errors
// that are not validation errors, such as malformed JSON, land under
// "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans != nil {
				fields[fe.Field()] = fe.Translate(trans)
			} else {
				fields[fe.Field()] = fe.Error()
			}
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the JSON body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindForm is Bind for url-encoded HTML form posts.
func BindForm(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindWith(dst, binding.Form); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
