package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"kagami/internal/camera"
	"kagami/internal/generated"
)

var registerOnce sync.Once

// registerValidators はginのバインディングにカスタムバリデーションを登録する
func registerValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("バリデーターエンジンがvalidator/v10ではありません")
			return
		}
		err = v.RegisterValidation("camera_type", validateCameraType)
	})
	return err
}

// validateCameraType はfront/backのみを受け付ける
func validateCameraType(fl validator.FieldLevel) bool {
	return camera.Type(fl.Field().String()).IsValid()
}

// requestLogger はリクエストをslogで記録する
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "HTTPリクエスト",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// openAPIValidator はOpenAPI定義に従ってリクエストを検証するミドルウェアを作成する
// 定義にないパスはそのまま通す
func openAPIValidator(doc *openapi3.T) (gin.HandlerFunc, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("OpenAPIルーターの作成に失敗: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(c *gin.Context) {
		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			// 定義外のルートはginに任せる
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options:    options,
		}
		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, generated.ErrorResponse{
				Error:     "invalid_request",
				Message:   "リクエストがAPI定義に一致しません",
				Details:   stringPtr(err.Error()),
				Timestamp: time.Now(),
			})
			return
		}
		c.Next()
	}, nil
}
