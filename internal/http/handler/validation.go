package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/password"
)

var (
	validationOnce sync.Once
	translator     ut.Translator
)

// SetupValidation registers custom rules and English messages on gin's validator.
// Safe to call more than once.
func SetupValidation() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return password.Validate(fl.Field().String()) == nil
		}); err != nil {
			zap.L().Error("register strongpassword rule", zap.Error(err))
		}

		english := en.New()
		trans, _ := ut.New(english, english).GetTranslator("en")
		if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
			zap.L().Error("register validation translations", zap.Error(err))
			return
		}
		_ = v.RegisterTranslation("strongpassword", trans,
			func(t ut.Translator) error {
				return t.Add("strongpassword", "{0} must mix upper and lower case letters with a digit and a special character", true)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T("strongpassword", fe.Field())
				return msg
			})
		translator = trans
	})
}

// bindJSON decodes the body into dst and writes a 422 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	SetupValidation()
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if translator != nil {
				msgs = append(msgs, fe.Translate(translator))
			} else {
				msgs = append(msgs, fe.Field()+" is invalid")
			}
		}
		return strings.Join(msgs, "; ")
	}
	return "Invalid request body"
}

// pathID parses the :name route parameter as a snowflake id.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}
